package spring

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"winter/internal/wire"
)

// Version is the protocol version this client speaks.
const Version = "0.0.8"

// handshakeBufferSize bounds the greeting read; a version string never
// comes close.
const handshakeBufferSize = 80

// Conn is the control connection to the daemon.
type Conn struct {
	uc   *net.UnixConn
	path string
}

// Dial opens a stream Unix socket and connects it to path. Creation and
// connection failures are reported as distinct kinds.
func Dial(path string) (*Conn, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, newError(KindSocketCreate, "create control socket", err)
	}
	unix.CloseOnExec(fd)

	if err := unix.Connect(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		_ = unix.Close(fd)
		return nil, newError(KindConnect, fmt.Sprintf("connect to %s", path), err)
	}

	uc, err := unixConnFromFD(fd, "spring-control")
	if err != nil {
		return nil, newError(KindConnect, fmt.Sprintf("connect to %s", path), err)
	}
	return &Conn{uc: uc, path: path}, nil
}

// Path reports the socket path this connection was dialled to.
func (c *Conn) Path() string { return c.path }

// Handshake reads the daemon's version greeting and compares it with want
// after trimming trailing bytes that are neither alphanumeric nor
// punctuation. Reading stops at a newline, a full buffer, end of stream, or
// as soon as the bytes received can no longer become want.
func (c *Conn) Handshake(want string) error {
	buf := make([]byte, 0, handshakeBufferSize)
	chunk := make([]byte, handshakeBufferSize)
	for {
		n, err := c.uc.Read(chunk[:handshakeBufferSize-len(buf)])
		buf = append(buf, chunk[:n]...)
		got := trimVersion(buf)

		if err != nil {
			if len(buf) == 0 {
				if errors.Is(err, io.EOF) {
					err = io.ErrUnexpectedEOF
				}
				return newError(KindConnect, "read daemon version", err)
			}
			return checkVersion(got, want)
		}
		if got == want || bytes.IndexByte(buf, '\n') >= 0 || len(buf) == handshakeBufferSize || !isPrefix(got, want) {
			return checkVersion(got, want)
		}
	}
}

func checkVersion(got, want string) error {
	if got == want {
		return nil
	}
	return newError(KindVersionMismatch, "", fmt.Errorf("daemon speaks %q, client speaks %q", got, want))
}

func isPrefix(got, want string) bool {
	return len(got) < len(want) && want[:len(got)] == got
}

// trimVersion cuts the greeting at the first NUL, then drops trailing bytes
// outside printable, non-space ASCII.
func trimVersion(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	end := len(buf)
	for end > 0 && !isGraphic(buf[end-1]) {
		end--
	}
	return string(buf[:end])
}

func isGraphic(b byte) bool {
	return b > ' ' && b < 0x7f
}

// WriteFrame sends one framed payload on the control connection.
func (c *Conn) WriteFrame(payload []byte) error {
	if err := wire.WriteFrame(c.uc, payload); err != nil {
		return newError(KindFrameWrite, "write control frame", err)
	}
	return nil
}

// Close releases the control socket.
func (c *Conn) Close() error {
	return c.uc.Close()
}

// unixConnFromFD wraps a raw socket descriptor. The descriptor is consumed:
// net.FileConn duplicates it and the original is closed here either way.
func unixConnFromFD(fd int, name string) (*net.UnixConn, error) {
	file := os.NewFile(uintptr(fd), name)
	defer file.Close()

	conn, err := net.FileConn(file)
	if err != nil {
		return nil, err
	}
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("%s: not a unix socket", name)
	}
	return uc, nil
}
