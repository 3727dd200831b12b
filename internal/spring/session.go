package spring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"winter/internal/config"
	"winter/internal/logging"
	"winter/internal/paths"
	"winter/internal/wire"
)

// State is a CommandSession protocol state.
type State int

const (
	StateUnconnected State = iota
	StateHandshaking
	StateChannelOpen
	StateArgsSent
	StateStdioRelayed
	StateAwaitingReply
	StateDone
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateHandshaking:
		return "handshaking"
	case StateChannelOpen:
		return "channel_open"
	case StateArgsSent:
		return "args_sent"
	case StateStdioRelayed:
		return "stdio_relayed"
	case StateAwaitingReply:
		return "awaiting_reply"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stdio holds the descriptors relayed to the daemon.
type Stdio struct {
	Stdout *os.File
	Stderr *os.File
	Stdin  *os.File
}

// ProcessStdio returns the process's own standard descriptors.
func ProcessStdio() Stdio {
	return Stdio{Stdout: os.Stdout, Stderr: os.Stderr, Stdin: os.Stdin}
}

// ErrSessionUsed is returned when Run is called twice on one Session.
var ErrSessionUsed = errors.New("session already used")

// Session runs exactly one command against the daemon.
type Session struct {
	ID string

	layout   paths.Layout
	protocol config.Protocol
	version  string
	stdio    Stdio
	environ  func() []string
	logger   *slog.Logger

	state State
	reply []byte

	mu   sync.Mutex
	ctrl *Conn
	app  *Channel
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithVersion overrides the protocol version expected from the daemon.
func WithVersion(version string) SessionOption {
	return func(s *Session) { s.version = version }
}

// WithEnviron supplies the environment sent when env_mode is "environ".
func WithEnviron(fn func() []string) SessionOption {
	return func(s *Session) { s.environ = fn }
}

// NewSession prepares a session for cfg. Nothing is opened until Run.
func NewSession(cfg *config.Config, logger *slog.Logger, stdio Stdio, opts ...SessionOption) *Session {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	id := uuid.NewString()
	s := &Session{
		ID:       id,
		layout:   cfg.Layout(),
		protocol: cfg.Protocol,
		version:  Version,
		stdio:    stdio,
		environ:  os.Environ,
		logger:   logging.WithSession(logging.NewComponentLogger(logger, "session"), id),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports how far the session progressed.
func (s *Session) State() State { return s.state }

// Reply returns whatever the daemon wrote back on the application channel.
func (s *Session) Reply() []byte { return s.reply }

// Run executes req end to end. Any failure aborts the session; all
// descriptors are released before Run returns. Cancelling ctx unblocks
// pending socket I/O; without cancellation Run blocks as long as the daemon
// does.
func (s *Session) Run(ctx context.Context, req wire.CommandRequest) (err error) {
	if s.state != StateUnconnected {
		return ErrSessionUsed
	}
	defer s.close()
	defer func() {
		if err != nil && ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
			err = fmt.Errorf("%w (%w)", err, ctx.Err())
		}
		if err != nil {
			s.logger.Debug("session aborted", logging.String(logging.FieldState, s.state.String()), logging.Error(err))
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	controlPayload, commandPayload, err := s.encode(req)
	if err != nil {
		return err
	}

	ctrl, err := Dial(s.layout.Socket)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ctrl = ctrl
	s.mu.Unlock()
	stop := context.AfterFunc(ctx, s.interrupt)
	defer stop()
	s.transition(StateHandshaking, logging.String(logging.FieldSocket, s.layout.Socket))

	if err := ctrl.Handshake(s.version); err != nil {
		return err
	}

	app, err := OpenChannel(ctrl)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.app = app
	s.mu.Unlock()
	s.transition(StateChannelOpen)

	if err := ctrl.WriteFrame(controlPayload); err != nil {
		return err
	}
	s.transition(StateArgsSent, logging.Int("control_bytes", len(controlPayload)))

	if err := app.RelayStdio(s.stdio.Stdout, s.stdio.Stderr, s.stdio.Stdin); err != nil {
		return err
	}
	s.transition(StateStdioRelayed)

	if err := app.WriteFrame(commandPayload); err != nil {
		return err
	}
	s.transition(StateAwaitingReply, logging.Strings("command", req.Array()))

	if s.reply, err = s.awaitReply(app); err != nil {
		return err
	}
	s.transition(StateDone, logging.Int("reply_bytes", len(s.reply)))
	return nil
}

func (s *Session) encode(req wire.CommandRequest) ([]byte, []byte, error) {
	var env any = wire.EnvPlaceholder
	if s.protocol.EnvMode == config.EnvModeEnviron {
		env = wire.EnvironMap(s.environ())
	}
	control, err := wire.EncodeControl(req, env)
	if err != nil {
		return nil, nil, err
	}
	command, err := wire.EncodeCommand(req)
	if err != nil {
		return nil, nil, err
	}
	return control, command, nil
}

// awaitReply blocks until the daemon writes to or closes its end of the
// application channel. Command output itself arrives on the relayed
// descriptors, so the reply carries no defined content.
func (s *Session) awaitReply(app *Channel) ([]byte, error) {
	switch s.protocol.ReplyMode {
	case config.ReplyModeNone:
		return nil, nil
	case config.ReplyModeStrict:
		return app.ReadFrameReply(s.protocol.MaxFrameBytes)
	default:
		return app.ReadLegacyReply()
	}
}

func (s *Session) transition(next State, attrs ...logging.Attr) {
	s.state = next
	args := make([]any, 0, len(attrs)+1)
	args = append(args, logging.String(logging.FieldState, next.String()))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	s.logger.Debug("session state", args...)
}

// interrupt expires every open socket so blocked reads and writes return.
func (s *Session) interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if s.ctrl != nil {
		_ = s.ctrl.uc.SetDeadline(now)
	}
	if s.app != nil {
		_ = s.app.uc.SetDeadline(now)
	}
}

// close releases the application channel, then the control socket, each
// exactly once.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.app != nil {
		if err := s.app.Close(); err != nil {
			s.logger.Debug("close application channel", logging.Error(err))
		}
		s.app = nil
	}
	if s.ctrl != nil {
		if err := s.ctrl.Close(); err != nil {
			s.logger.Debug("close control socket", logging.Error(err))
		}
		s.ctrl = nil
	}
}
