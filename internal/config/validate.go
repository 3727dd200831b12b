package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProtocol(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateProtocol() error {
	switch c.Protocol.EnvMode {
	case EnvModePlaceholder, EnvModeEnviron:
	default:
		return fmt.Errorf("protocol.env_mode must be %q or %q, got %q", EnvModePlaceholder, EnvModeEnviron, c.Protocol.EnvMode)
	}
	switch c.Protocol.ReplyMode {
	case ReplyModeLegacy, ReplyModeStrict, ReplyModeNone:
	default:
		return fmt.Errorf("protocol.reply_mode must be one of legacy, strict, none; got %q", c.Protocol.ReplyMode)
	}
	if c.Protocol.MaxFrameBytes < 0 {
		return errors.New("protocol.max_frame_bytes must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
