package spring

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"winter/internal/wire"
)

// rightsSentinel accompanies every descriptor; some platforms refuse
// ancillary data on a zero-length message.
var rightsSentinel = []byte{0}

// Channel is the client's end of the per-command application channel.
type Channel struct {
	uc *net.UnixConn
}

// OpenChannel creates a connected socket pair, transfers one end to the
// daemon over ctrl and keeps the other. The transferred end is closed
// locally whether or not the transfer succeeds.
func OpenChannel(ctrl *Conn) (*Channel, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, newError(KindHandoff, "create application socket pair", err)
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])

	remote := os.NewFile(uintptr(fds[1]), "spring-application-remote")
	defer remote.Close()

	local, err := unixConnFromFD(fds[0], "spring-application")
	if err != nil {
		return nil, newError(KindHandoff, "wrap application socket", err)
	}

	if err := SendFD(ctrl.uc, remote); err != nil {
		local.Close()
		return nil, newError(KindHandoff, "send application socket", err)
	}
	return &Channel{uc: local}, nil
}

// Relay transfers each file's descriptor over the channel, one ancillary
// message per descriptor, in argument order.
func (ch *Channel) Relay(files ...*os.File) error {
	for _, f := range files {
		if f == nil {
			return newError(KindHandoff, "relay descriptor", errors.New("nil file"))
		}
		if err := SendFD(ch.uc, f); err != nil {
			return newError(KindHandoff, fmt.Sprintf("relay %s", f.Name()), err)
		}
	}
	return nil
}

// RelayStdio relays stdout, stderr and stdin in that order. The daemon maps
// descriptors by position, so the order is part of the protocol.
func (ch *Channel) RelayStdio(stdout, stderr, stdin *os.File) error {
	return ch.Relay(stdout, stderr, stdin)
}

// WriteFrame sends one framed payload on the application channel.
func (ch *Channel) WriteFrame(payload []byte) error {
	if err := wire.WriteFrame(ch.uc, payload); err != nil {
		return newError(KindFrameWrite, "write command frame", err)
	}
	return nil
}

// ReadLegacyReply performs one bounded best-effort read.
func (ch *Channel) ReadLegacyReply() ([]byte, error) {
	data, err := wire.ReadLegacy(ch.uc, wire.LegacyReplySize)
	if err != nil {
		return data, newError(KindFrameRead, "read reply", err)
	}
	return data, nil
}

// ReadFrameReply reads one length-prefixed reply. A daemon that hangs up
// without replying yields no data and no error.
func (ch *Channel) ReadFrameReply(max int) ([]byte, error) {
	data, err := wire.NewReader(ch.uc, max).ReadFrame()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, newError(KindFrameRead, "read reply frame", err)
	}
	return data, nil
}

// Close releases the client's end of the channel.
func (ch *Channel) Close() error {
	return ch.uc.Close()
}

// SendFD transmits f's descriptor over conn as SCM_RIGHTS alongside a single
// sentinel byte.
func SendFD(conn *net.UnixConn, f *os.File) error {
	rights := unix.UnixRights(int(f.Fd()))
	n, oobn, err := conn.WriteMsgUnix(rightsSentinel, rights, nil)
	if err != nil {
		return err
	}
	if n != len(rightsSentinel) || oobn != len(rights) {
		return fmt.Errorf("sendmsg transmitted %d/%d bytes and %d/%d control bytes", n, len(rightsSentinel), oobn, len(rights))
	}
	return nil
}

// receiveRightsSlots sizes the control buffer beyond the single expected
// descriptor so that extra descriptors arrive and can be closed instead of
// being truncated away.
const receiveRightsSlots = 8

// ReceiveFD reads one sentinel byte and the single descriptor attached to
// it. It is the daemon-side counterpart of SendFD.
func ReceiveFD(conn *net.UnixConn) (*os.File, error) {
	buf := make([]byte, len(rightsSentinel))
	oob := make([]byte, unix.CmsgSpace(4*receiveRightsSlots))
	n, oobn, _, _, err := conn.ReadMsgUnix(buf, oob)
	if err != nil {
		return nil, err
	}
	if n == 0 && oobn == 0 {
		return nil, io.EOF
	}
	msgs, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return nil, fmt.Errorf("parse control message: %w", err)
	}
	fd, err := singleRight(msgs)
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(fd)
	return os.NewFile(uintptr(fd), "received-fd"), nil
}

// singleRight extracts the one descriptor carried by msgs. On any other
// shape every descriptor found in any message is closed.
func singleRight(msgs []unix.SocketControlMessage) (int, error) {
	var (
		fds      []int
		parseErr error
	)
	for i := range msgs {
		rights, err := unix.ParseUnixRights(&msgs[i])
		if err != nil {
			parseErr = err
			continue
		}
		fds = append(fds, rights...)
	}

	switch {
	case parseErr != nil:
		closeAll(fds)
		return -1, fmt.Errorf("parse rights: %w", parseErr)
	case len(msgs) != 1:
		closeAll(fds)
		return -1, fmt.Errorf("expected 1 control message, got %d", len(msgs))
	case len(fds) != 1:
		closeAll(fds)
		return -1, fmt.Errorf("expected 1 descriptor, got %d", len(fds))
	}
	return fds[0], nil
}

func closeAll(fds []int) {
	for _, fd := range fds {
		_ = unix.Close(fd)
	}
}
