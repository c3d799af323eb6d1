package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// InitLogger configures the global zerolog logger from LOG_LEVEL, LOG_FORMAT and LOG_FILE.
// With LOG_FILE set, output is also written to a rotated file.
func InitLogger(config map[string]string) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(GetString(config, "LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	if GetString(config, "LOG_FORMAT", "json") == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}

	if file := GetString(config, "LOG_FILE", ""); file != "" {
		rotator := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    GetInt(config, "LOG_FILE_MAX_MB", 100),
			MaxBackups: GetInt(config, "LOG_FILE_MAX_BACKUPS", 5),
			MaxAge:     GetInt(config, "LOG_FILE_MAX_AGE_DAYS", 28),
			Compress:   GetBool(config, "LOG_FILE_COMPRESS", true),
		}
		out = zerolog.MultiLevelWriter(out, rotator)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}
