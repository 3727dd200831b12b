package config

import (
	"winter/internal/paths"
)

// Environment variables consulted during Load.
const (
	EnvTmpPath = "SPRING_TMP_PATH"
	EnvConfig  = "WINTER_CONFIG"
)

// Payload encodings for the env field of the control frame.
const (
	EnvModePlaceholder = "placeholder"
	EnvModeEnviron     = "environ"
)

// Strategies for reading the reply on the application channel.
const (
	ReplyModeLegacy = "legacy"
	ReplyModeStrict = "strict"
	ReplyModeNone   = "none"
)

// Spring locates the preloader daemon's runtime files.
type Spring struct {
	TmpPath string `toml:"tmp_path"`
}

// Protocol tunes wire-level behaviour towards the daemon.
type Protocol struct {
	EnvMode       string `toml:"env_mode"`
	ReplyMode     string `toml:"reply_mode"`
	MaxFrameBytes int    `toml:"max_frame_bytes"`
}

// Logging contains configuration for client log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// File receives log records instead of stderr when set.
	File string `toml:"file"`
}

// Config encapsulates all configuration values for winter.
type Config struct {
	Spring   Spring   `toml:"spring"`
	Protocol Protocol `toml:"protocol"`
	Logging  Logging  `toml:"logging"`
}

// Layout resolves the socket and PID-file locations for this config.
func (c *Config) Layout() paths.Layout {
	return paths.Resolve(c.Spring.TmpPath)
}
