// Package springtest runs an in-process stand-in for the spring preloader so
// client code can be exercised against a real Unix socket.
package springtest

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"winter/internal/paths"
	"winter/internal/spring"
	"winter/internal/wire"
)

// Received is everything the daemon saw for one client session.
type Received struct {
	ControlFrame []byte
	CommandFrame []byte
	// Stdio holds the relayed descriptors in arrival order.
	Stdio []*os.File
	// Err is set when the session broke off early.
	Err error
}

// Options controls the fake daemon's behaviour.
type Options struct {
	// Greeting is written on connect; defaults to the client version plus "\n".
	Greeting []byte
	// HangUpAfterGreeting closes the control socket right after the greeting.
	HangUpAfterGreeting bool
	// Reply is written on the application channel before it is closed.
	Reply []byte
	// Handle runs after the command frame is read and before the reply.
	Handle func(*Received)
}

// Daemon is a running fake preloader.
type Daemon struct {
	Layout paths.Layout

	opts     Options
	listener *net.UnixListener
	lock     *flock.Flock
	sessions chan *Received
	wg       sync.WaitGroup
}

// Start listens on a fresh temporary layout and writes the PID file. The
// daemon and every descriptor it received are released at test cleanup.
func Start(t testing.TB, opts Options) *Daemon {
	t.Helper()

	// Unix socket paths are short-limited; t.TempDir can exceed it.
	base, err := os.MkdirTemp("", "spring")
	if err != nil {
		t.Fatalf("create tmp path: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(base) })

	d, err := Listen(paths.Resolve(base), opts)
	if err != nil {
		t.Fatalf("start fake daemon: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

// Listen starts a fake daemon on layout. Only one daemon may own a layout
// at a time; a second Listen fails while the first holds spring.lock.
func Listen(layout paths.Layout, opts Options) (*Daemon, error) {
	if opts.Greeting == nil {
		opts.Greeting = []byte(spring.Version + "\n")
	}

	lock := flock.New(filepath.Join(layout.Base, "spring.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !ok {
		return nil, errors.New("daemon already running for this tmp path")
	}

	if err := os.WriteFile(layout.PIDFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("write pid file: %w", err)
	}

	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: layout.Socket, Net: "unix"})
	if err != nil {
		_ = os.Remove(layout.PIDFile)
		_ = lock.Unlock()
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	d := &Daemon{
		Layout:   layout,
		opts:     opts,
		listener: listener,
		lock:     lock,
		sessions: make(chan *Received, 16),
	}
	d.wg.Add(1)
	go d.serve()
	return d, nil
}

// Next waits for the next completed session.
func (d *Daemon) Next(t testing.TB) *Received {
	t.Helper()
	select {
	case r := <-d.sessions:
		t.Cleanup(func() {
			for _, f := range r.Stdio {
				_ = f.Close()
			}
		})
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for client session")
		return nil
	}
}

// Close stops accepting, waits for in-flight sessions and removes the
// runtime files.
func (d *Daemon) Close() {
	_ = d.listener.Close()
	d.wg.Wait()
	_ = os.Remove(d.Layout.PIDFile)
	_ = d.lock.Unlock()
}

func (d *Daemon) serve() {
	defer d.wg.Done()
	for {
		conn, err := d.listener.AcceptUnix()
		if err != nil {
			return
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			r := d.handle(conn)
			_ = conn.Close()
			d.sessions <- r
		}()
	}
}

func (d *Daemon) handle(ctrl *net.UnixConn) *Received {
	r := &Received{}
	if _, err := ctrl.Write(d.opts.Greeting); err != nil {
		r.Err = fmt.Errorf("write greeting: %w", err)
		return r
	}
	if d.opts.HangUpAfterGreeting {
		r.Err = errors.New("hung up after greeting")
		return r
	}

	appFile, err := spring.ReceiveFD(ctrl)
	if err != nil {
		r.Err = fmt.Errorf("receive application channel: %w", err)
		return r
	}
	app, err := fileUnixConn(appFile)
	if err != nil {
		r.Err = err
		return r
	}
	defer app.Close()

	if r.ControlFrame, err = wire.NewReader(ctrl, 0).ReadFrame(); err != nil {
		r.Err = fmt.Errorf("read control frame: %w", err)
		return r
	}

	for i := 0; i < 3; i++ {
		f, err := spring.ReceiveFD(app)
		if err != nil {
			r.Err = fmt.Errorf("receive stdio descriptor %d: %w", i, err)
			return r
		}
		r.Stdio = append(r.Stdio, f)
	}

	if r.CommandFrame, err = wire.NewReader(app, 0).ReadFrame(); err != nil {
		r.Err = fmt.Errorf("read command frame: %w", err)
		return r
	}

	if d.opts.Handle != nil {
		d.opts.Handle(r)
	}
	if len(d.opts.Reply) > 0 {
		if _, err := app.Write(d.opts.Reply); err != nil {
			r.Err = fmt.Errorf("write reply: %w", err)
		}
	}
	return r
}

func fileUnixConn(f *os.File) (*net.UnixConn, error) {
	defer f.Close()
	conn, err := net.FileConn(f)
	if err != nil {
		return nil, fmt.Errorf("wrap application channel: %w", err)
	}
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		conn.Close()
		return nil, errors.New("application channel is not a unix socket")
	}
	return uc, nil
}
