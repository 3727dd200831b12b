package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() {
	c.normalizeSpring()
	c.normalizeProtocol()
	c.normalizeLogging()
}

// The tmp path is deliberately not cleaned or made absolute: the daemon and
// the client must agree on the literal path, and odd values pass through.
func (c *Config) normalizeSpring() {
	if value, ok := os.LookupEnv(EnvTmpPath); ok && value != "" {
		c.Spring.TmpPath = value
	}
}

func (c *Config) normalizeProtocol() {
	c.Protocol.EnvMode = strings.ToLower(strings.TrimSpace(c.Protocol.EnvMode))
	if c.Protocol.EnvMode == "" {
		c.Protocol.EnvMode = defaultEnvMode
	}
	c.Protocol.ReplyMode = strings.ToLower(strings.TrimSpace(c.Protocol.ReplyMode))
	if c.Protocol.ReplyMode == "" {
		c.Protocol.ReplyMode = defaultReplyMode
	}
	if c.Protocol.MaxFrameBytes == 0 {
		c.Protocol.MaxFrameBytes = defaultMaxFrameBytes
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if file := strings.TrimSpace(c.Logging.File); file != "" {
		if expanded, err := ExpandPath(file); err == nil {
			file = expanded
		}
		c.Logging.File = file
	}
}
