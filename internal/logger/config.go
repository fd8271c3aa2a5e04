// internal/logger/config.go
package logger

type Config struct {
	LogFile     string // empty disables the file sink
	MaxSize     int    // megabytes
	MaxAge      int    // days
	MaxBackups  int
	Compress    bool
	Development bool
	Pretty      bool // colored short console output for the CLI
}

// DefaultConfig returns a production configuration writing to curve.log.
func DefaultConfig() *Config {
	return &Config{
		LogFile:    "curve.log",
		MaxSize:    100,
		MaxAge:     7,
		MaxBackups: 3,
		Compress:   true,
	}
}
