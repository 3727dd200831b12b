package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"

	"winter/internal/config"
	"winter/internal/logging"
	"winter/internal/spring"
	"winter/internal/wire"
)

type commandContext struct {
	configFlag   string
	logLevelFlag string

	// rawArgs is the unparsed invocation; forwarding commands take their
	// arguments from it so nothing after the command name is reinterpreted.
	rawArgs []string

	stdio   *spring.Stdio
	environ func() []string
	stderr  io.Writer

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		if exists {
			c.configPath = path
		}
		if level := strings.TrimSpace(c.logLevelFlag); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger builds the session logger and the function that releases its log
// file. A log file that cannot be opened is reported and replaced by stderr.
func (c *commandContext) logger(cfg *config.Config) (*slog.Logger, func() error) {
	logger, closeLog, err := logging.NewFromConfig(cfg, c.stderr)
	if err == nil {
		return logger, closeLog
	}
	errOut := c.errOutput()
	fmt.Fprintf(errOut, "winter: %v; logging to stderr\n", err)

	fallback := *cfg
	fallback.Logging.File = ""
	logger, closeLog, err = logging.NewFromConfig(&fallback, errOut)
	if err != nil {
		return logging.NewNop(), func() error { return nil }
	}
	return logger, closeLog
}

func (c *commandContext) errOutput() io.Writer {
	if c.stderr != nil {
		return c.stderr
	}
	return os.Stderr
}

func (c *commandContext) stdioValue() spring.Stdio {
	if c.stdio != nil {
		return *c.stdio
	}
	return spring.ProcessStdio()
}

// runCommand forwards req to the daemon and waits for it to finish.
func (c *commandContext) runCommand(ctx context.Context, req wire.CommandRequest) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	var opts []spring.SessionOption
	if c.environ != nil {
		opts = append(opts, spring.WithEnviron(c.environ))
	}
	logger, closeLog := c.logger(cfg)
	defer closeLog()

	session := spring.NewSession(cfg, logger, c.stdioValue(), opts...)
	if err := session.Run(ctx, req); err != nil {
		return wrapSessionError(err, cfg.Layout().Socket)
	}
	return nil
}

// wrapSessionError adds a hint for the common failures. The original error
// stays in the chain so the exit code survives.
func wrapSessionError(err error, socket string) error {
	switch {
	case errors.Is(err, spring.ErrConnect) && errors.Is(err, syscall.ENOENT):
		return fmt.Errorf("connect to spring: socket %s not found; is the spring server running? (%w)", socket, err)
	case errors.Is(err, spring.ErrConnect) && errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to spring: socket %s refused the connection; the server may have exited (%w)", socket, err)
	case errors.Is(err, spring.ErrVersionMismatch):
		return fmt.Errorf("server version mismatch: %w", err)
	default:
		return err
	}
}

// splitInvocation returns the root flags preceding name in raw and the
// arguments after it.
func splitInvocation(raw []string, name string) ([]string, []string, bool) {
	for i := 0; i < len(raw); i++ {
		tok := raw[i]
		if tok == name {
			return raw[:i], raw[i+1:], true
		}
		if tok == "--" || !strings.HasPrefix(tok, "-") {
			return nil, nil, false
		}
		if rootFlagTakesValue(tok) {
			i++
		}
	}
	return nil, nil, false
}

func rootFlagTakesValue(tok string) bool {
	switch tok {
	case "--config", "-c", "--log-level":
		return true
	default:
		return false
	}
}
