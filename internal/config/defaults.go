package config

const (
	defaultTmpPath       = "./tmp/spring"
	defaultEnvMode       = EnvModePlaceholder
	defaultReplyMode     = ReplyModeLegacy
	defaultMaxFrameBytes = 64 << 20
	defaultLogFormat     = "console"
	defaultLogLevel      = "warn"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Spring: Spring{
			TmpPath: defaultTmpPath,
		},
		Protocol: Protocol{
			EnvMode:       defaultEnvMode,
			ReplyMode:     defaultReplyMode,
			MaxFrameBytes: defaultMaxFrameBytes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
