package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"winter/internal/config"
	"winter/internal/spring"
	"winter/internal/springtest"
)

// isolate keeps config discovery and SPRING_TMP_PATH from leaking in from
// the developer's machine.
func isolate(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvTmpPath, "")
	t.Chdir(base)
	return base
}

func testStdio(t *testing.T) *spring.Stdio {
	t.Helper()
	var files []*os.File
	mk := func() (*os.File, *os.File) {
		r, w, err := os.Pipe()
		if err != nil {
			t.Fatalf("pipe: %v", err)
		}
		files = append(files, r, w)
		return r, w
	}
	_, stdout := mk()
	_, stderr := mk()
	stdin, _ := mk()
	t.Cleanup(func() {
		for _, f := range files {
			f.Close()
		}
	})
	return &spring.Stdio{Stdout: stdout, Stderr: stderr, Stdin: stdin}
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	ctx := newCommandContext()
	ctx.rawArgs = args
	ctx.stdio = testStdio(t)
	ctx.stderr = &stderr

	cmd := newRootCommand(ctx)
	// A nil slice would make cobra fall back to os.Args.
	cmd.SetArgs(append([]string{}, args...))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func startDaemon(t *testing.T, opts springtest.Options) *springtest.Daemon {
	t.Helper()
	d := springtest.Start(t, opts)
	t.Setenv(config.EnvTmpPath, d.Layout.Base)
	return d
}

func TestRspecSendsControlPayload(t *testing.T) {
	isolate(t)
	d := startDaemon(t, springtest.Options{})

	res := runCLI(t, "rspec")
	if res.err != nil {
		t.Fatalf("winter rspec: %v", res.err)
	}
	r := d.Next(t)
	if r.Err != nil {
		t.Fatalf("daemon: %v", r.Err)
	}
	if got, want := string(r.ControlFrame), `{"args":["rspec"],"env":"ENV"}`; got != want {
		t.Fatalf("control frame = %s, want %s", got, want)
	}
	if got, want := string(r.CommandFrame), `["rspec"]`; got != want {
		t.Fatalf("command frame = %s, want %s", got, want)
	}
	if len(r.Stdio) != 3 {
		t.Fatalf("received %d descriptors, want 3", len(r.Stdio))
	}
}

func TestForwardedCommands(t *testing.T) {
	isolate(t)
	d := startDaemon(t, springtest.Options{})

	cases := []struct {
		args []string
		want string
	}{
		{args: []string{"rails", "generate", "model", "user"}, want: `["rails_generate","model","user"]`},
		{args: []string{"rails", "console"}, want: `["rails_console"]`},
		{args: []string{"rails"}, want: `["rails"]`},
		{args: []string{"rake", "db:migrate"}, want: `["rake","db:migrate"]`},
		{args: []string{"cucumber", "features/login.feature"}, want: `["cucumber","features/login.feature"]`},
		{args: []string{"testunit", "test/unit/user_test.rb"}, want: `["testunit","test/unit/user_test.rb"]`},
		// Flags after the command belong to the application.
		{args: []string{"rspec", "--help", "-c", "spec", "--", "-x"}, want: `["rspec","--help","-c","spec","--","-x"]`},
	}
	for _, tc := range cases {
		res := runCLI(t, tc.args...)
		if res.err != nil {
			t.Fatalf("winter %v: %v", tc.args, res.err)
		}
		r := d.Next(t)
		if got := string(r.CommandFrame); got != tc.want {
			t.Fatalf("winter %v sent %s, want %s", tc.args, got, tc.want)
		}
	}
}

func TestRootFlagsBeforeForwardedCommand(t *testing.T) {
	base := isolate(t)
	d := springtest.Start(t, springtest.Options{})

	configPath := filepath.Join(base, "custom.toml")
	body := "[spring]\ntmp_path = " + strconv.Quote(d.Layout.Base) + "\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	res := runCLI(t, "--config", configPath, "--log-level=debug", "rake", "-T")
	if res.err != nil {
		t.Fatalf("winter rake: %v", res.err)
	}
	if got, want := string(d.Next(t).CommandFrame), `["rake","-T"]`; got != want {
		t.Fatalf("command frame = %s, want %s", got, want)
	}
	if !strings.Contains(res.stderr, "session state") {
		t.Fatalf("expected debug session logs on stderr, got %q", res.stderr)
	}
	if res.stdout != "" {
		t.Fatalf("expected nothing on stdout, got %q", res.stdout)
	}
}

func TestLogFileReceivesSessionLogs(t *testing.T) {
	base := isolate(t)
	d := startDaemon(t, springtest.Options{})

	logPath := filepath.Join(base, "logs", "winter.log")
	body := "[logging]\nlevel = \"debug\"\nfile = " + strconv.Quote(logPath) + "\n"
	if err := os.WriteFile(filepath.Join(base, "winter.toml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	res := runCLI(t, "rspec")
	if res.err != nil {
		t.Fatalf("winter rspec: %v", res.err)
	}
	d.Next(t)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "session state") {
		t.Fatalf("expected session logs in %s, got %q", logPath, content)
	}
	if strings.Contains(res.stderr, "session state") {
		t.Fatalf("session logs leaked to stderr: %q", res.stderr)
	}
}

func TestUnopenableLogFileFallsBackToStderr(t *testing.T) {
	base := isolate(t)
	d := startDaemon(t, springtest.Options{})

	blocker := filepath.Join(base, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	body := "[logging]\nlevel = \"debug\"\nfile = " + strconv.Quote(filepath.Join(blocker, "winter.log")) + "\n"
	if err := os.WriteFile(filepath.Join(base, "winter.toml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	res := runCLI(t, "rspec")
	if res.err != nil {
		t.Fatalf("winter rspec: %v", res.err)
	}
	d.Next(t)

	if !strings.Contains(res.stderr, "logging to stderr") {
		t.Fatalf("expected a log file warning on stderr, got %q", res.stderr)
	}
	if !strings.Contains(res.stderr, "session state") {
		t.Fatalf("expected session logs on stderr after fallback, got %q", res.stderr)
	}
}

func TestHelpScreens(t *testing.T) {
	isolate(t)
	for _, args := range [][]string{nil, {"help"}, {"--help"}, {"frobnicate"}, {"frobnicate", "--weird"}} {
		res := runCLI(t, args...)
		if res.err != nil {
			t.Fatalf("winter %v: %v", args, res.err)
		}
		if res.stdout != helpText {
			t.Fatalf("winter %v printed %q", args, res.stdout)
		}
	}
}

func TestStatusNotRunning(t *testing.T) {
	base := isolate(t)
	t.Setenv(config.EnvTmpPath, filepath.Join(base, "tmp", "spring"))

	res := runCLI(t, "status")
	if res.err != nil {
		t.Fatalf("winter status: %v", res.err)
	}
	if res.stdout != "Spring server is not running.\n" {
		t.Fatalf("status = %q", res.stdout)
	}
}

func TestStatusRunning(t *testing.T) {
	isolate(t)
	d := startDaemon(t, springtest.Options{})

	res := runCLI(t, "status")
	if res.err != nil {
		t.Fatalf("winter status: %v", res.err)
	}
	want := "Spring server is running, process id is " + strconv.Itoa(os.Getpid()) + ".\n"
	if res.stdout != want {
		t.Fatalf("status = %q, want %q", res.stdout, want)
	}

	res = runCLI(t, "status", "--verbose")
	if res.err != nil {
		t.Fatalf("winter status --verbose: %v", res.err)
	}
	for _, fragment := range []string{want, "Control socket", d.Layout.Socket, d.Layout.PIDFile, "yes"} {
		if !strings.Contains(res.stdout, fragment) {
			t.Fatalf("verbose status missing %q:\n%s", fragment, res.stdout)
		}
	}
}

// A failed session used to exit 0; each protocol failure now has its own
// non-zero status.
func TestFailuresExitNonZero(t *testing.T) {
	t.Run("daemon not running", func(t *testing.T) {
		base := isolate(t)
		t.Setenv(config.EnvTmpPath, filepath.Join(base, "nowhere"))

		res := runCLI(t, "rspec")
		if res.err == nil {
			t.Fatal("expected connect failure")
		}
		if code := exitCode(res.err); code != 4 {
			t.Fatalf("exit code = %d, want 4 (%v)", code, res.err)
		}
		if !strings.Contains(res.err.Error(), "not found") {
			t.Fatalf("expected hint in error, got %v", res.err)
		}
	})

	t.Run("version mismatch", func(t *testing.T) {
		isolate(t)
		startDaemon(t, springtest.Options{Greeting: []byte("0.0.7\n")})

		res := runCLI(t, "rspec")
		if code := exitCode(res.err); code != 5 {
			t.Fatalf("exit code = %d, want 5 (%v)", code, res.err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		base := isolate(t)
		configPath := filepath.Join(base, "bad.toml")
		if err := os.WriteFile(configPath, []byte("[protocol]\nreply_mode = \"sometimes\"\n"), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		res := runCLI(t, "-c", configPath, "status")
		if code := exitCode(res.err); code != 1 {
			t.Fatalf("exit code = %d, want 1 (%v)", code, res.err)
		}
	})

	if code := exitCode(nil); code != 0 {
		t.Fatalf("exitCode(nil) = %d", code)
	}
}

func TestConfigInit(t *testing.T) {
	base := isolate(t)
	target := filepath.Join(base, "conf", "winter.toml")

	res := runCLI(t, "config", "init", "--path", target)
	if res.err != nil {
		t.Fatalf("config init: %v", res.err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	if res := runCLI(t, "config", "init", "--path", target); res.err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
	if res := runCLI(t, "config", "init", "--path", target, "--overwrite"); res.err != nil {
		t.Fatalf("config init --overwrite: %v", res.err)
	}

	t.Setenv(config.EnvTmpPath, "/srv/app/tmp/spring")
	res = runCLI(t, "--config", target, "--log-level", "info", "config", "show")
	if res.err != nil {
		t.Fatalf("config show: %v", res.err)
	}
	for _, want := range []string{"# loaded from " + target, "tmp_path", "/srv/app/tmp/spring", "info", "# pid file: /srv/app/tmp/spring/spring.pid"} {
		if !strings.Contains(res.stdout, want) {
			t.Fatalf("config show missing %q:\n%s", want, res.stdout)
		}
	}

	if res := runCLI(t, "config", "init", "--project"); res.err != nil {
		t.Fatalf("config init --project: %v", res.err)
	}
	if _, err := os.Stat(filepath.Join(base, "winter.toml")); err != nil {
		t.Fatalf("project config not written: %v", err)
	}
}

func TestSplitInvocation(t *testing.T) {
	cases := []struct {
		raw     []string
		leading []string
		rest    []string
		ok      bool
	}{
		{raw: []string{"rspec", "a"}, rest: []string{"a"}, ok: true},
		{raw: []string{"-c", "rspec", "rspec", "x"}, leading: []string{"-c", "rspec"}, rest: []string{"x"}, ok: true},
		{raw: []string{"--log-level=info", "rspec"}, leading: []string{"--log-level=info"}, rest: []string{}, ok: true},
		{raw: []string{"other", "rspec"}},
		{raw: []string{"--", "rspec"}},
	}
	for _, tc := range cases {
		leading, rest, ok := splitInvocation(tc.raw, "rspec")
		if ok != tc.ok {
			t.Fatalf("splitInvocation(%v) ok = %v", tc.raw, ok)
		}
		if strings.Join(leading, " ") != strings.Join(tc.leading, " ") || strings.Join(rest, " ") != strings.Join(tc.rest, " ") {
			t.Fatalf("splitInvocation(%v) = %v, %v; want %v, %v", tc.raw, leading, rest, tc.leading, tc.rest)
		}
	}
}
