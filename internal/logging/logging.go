package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is the verbosity selected with the counted -v flag.
type Level int

const (
	LevelNormal  Level = iota // info and above
	LevelVerbose              // -v: debug
	LevelTrace                // -vv: debug plus HTTP headers
)

const defaultMaxSizeMB = 10

var currentLevel Level

// Logger is shared by every package. It discards everything until Setup runs.
var Logger = zerolog.Nop()

// Options configures Setup.
type Options struct {
	Level Level
	// File sends logs to a rotating file instead of the console.
	File string
	// MaxSizeMB is the size at which File is rotated.
	MaxSizeMB int
	// Out overrides the console destination, mostly for tests.
	Out io.Writer
}

// Setup replaces Logger. Console output is human readable; file output is
// JSON lines.
func Setup(opts Options) {
	currentLevel = opts.Level

	zerologLevel := zerolog.InfoLevel
	if opts.Level >= LevelVerbose {
		zerologLevel = zerolog.DebugLevel
	}

	var output io.Writer
	switch {
	case opts.File != "":
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = defaultMaxSizeMB
		}
		output = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize, // megabytes
			MaxBackups: 3,
			Compress:   true,
		}
	default:
		out := opts.Out
		if out == nil {
			out = os.Stderr
		}
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	Logger = zerolog.New(output).
		Level(zerologLevel).
		With().
		Timestamp().
		Logger()
}

// GetLevel returns the level passed to the last Setup.
func GetLevel() Level { return currentLevel }

// IsVerbose reports whether debug output is on.
func IsVerbose() bool { return currentLevel >= LevelVerbose }

// IsTraceEnabled reports whether HTTP headers are logged.
func IsTraceEnabled() bool { return currentLevel >= LevelTrace }

const maxJSONLen = 2000

// ToJSON renders v for debug logs, cut at maxJSONLen bytes.
func ToJSON(v any) string {
	b, err := json.Marshal(v)
	switch {
	case err != nil:
		return fmt.Sprintf("<unencodable %T>", v)
	case len(b) > maxJSONLen:
		return string(b[:maxJSONLen]) + "...(truncated)"
	}
	return string(b)
}

// Headers formats HTTP headers for trace logging with credentials redacted.
func Headers(headers http.Header) string {
	if len(headers) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		value := strings.Join(headers[k], ", ")
		switch strings.ToLower(k) {
		case "authorization", "cookie", "set-cookie":
			value = "[REDACTED]"
		}
		fmt.Fprintf(&sb, "%s: %q", k, value)
	}
	sb.WriteString("}")
	return sb.String()
}

// LeveledLogger lets retryablehttp write through the global logger.
type LeveledLogger struct{}

func (LeveledLogger) Error(msg string, kv ...interface{}) { Error(msg, kv...) }
func (LeveledLogger) Warn(msg string, kv ...interface{})  { Warn(msg, kv...) }
func (LeveledLogger) Info(msg string, kv ...interface{})  { Info(msg, kv...) }
func (LeveledLogger) Debug(msg string, kv ...interface{}) { Debug(msg, kv...) }

// Info, Debug, Warn and Error take slog-style alternating keys and values.
func Info(msg string, kv ...interface{}) { Logger.Info().Fields(kv).Msg(msg) }

func Debug(msg string, kv ...interface{}) { Logger.Debug().Fields(kv).Msg(msg) }

func Warn(msg string, kv ...interface{}) { Logger.Warn().Fields(kv).Msg(msg) }

func Error(msg string, kv ...interface{}) { Logger.Error().Fields(kv).Msg(msg) }
