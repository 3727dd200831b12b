package spring

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCodes(t *testing.T) {
	if code := ExitCode(nil); code != 0 {
		t.Fatalf("ExitCode(nil) = %d, want 0", code)
	}
	if code := ExitCode(errors.New("boom")); code != 1 {
		t.Fatalf("ExitCode(plain error) = %d, want 1", code)
	}

	seen := map[int]Kind{}
	for _, k := range []Kind{KindSocketCreate, KindConnect, KindVersionMismatch, KindHandoff, KindFrameWrite, KindFrameRead} {
		code := ExitCode(newError(k, "op", errors.New("cause")))
		if code == 0 || code == 1 {
			t.Fatalf("kind %s maps to reserved exit code %d", k, code)
		}
		if prev, dup := seen[code]; dup {
			t.Fatalf("kinds %s and %s share exit code %d", prev, k, code)
		}
		seen[code] = k
	}
}

func TestErrorMatchesKindSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("run: %w", newError(KindConnect, "connect to ./tmp/spring/spring", cause))

	if !errors.Is(err, ErrConnect) {
		t.Fatalf("%v should match ErrConnect", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("%v should unwrap to its cause", err)
	}
	if errors.Is(err, ErrHandoff) {
		t.Fatalf("%v should not match ErrHandoff", err)
	}
	if kind := KindOf(err); kind != KindConnect {
		t.Fatalf("KindOf = %s, want %s", kind, KindConnect)
	}
	if code := ExitCode(err); code != 4 {
		t.Fatalf("ExitCode = %d, want 4", code)
	}
	if got, want := err.Error(), "run: connect to ./tmp/spring/spring: connection refused"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestErrorStrings(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{(&Error{Kind: KindFrameRead, Err: errors.New("eof")}).Error(), "frame read: eof"},
		{(&Error{Kind: KindFrameWrite, Op: "write reply"}).Error(), "write reply"},
		{ErrVersionMismatch.Error(), "version mismatch"},
		{Kind(42).String(), "unknown"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("got %q, want %q", tc.got, tc.want)
		}
	}
}
