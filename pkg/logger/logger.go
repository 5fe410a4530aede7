package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	ServiceName string `yaml:"service_name" env:"NETWORKINFO_LOG_NAME" env-default:"networkinfo" env-description:"Log file base name"`
	Level       string `yaml:"level" env:"NETWORKINFO_LOG_LEVEL" env-default:"info" env-description:"Minimum log level"`
	Dir         string `yaml:"dir" env:"NETWORKINFO_LOG_DIR" env-description:"Directory for rotated log files, defaults to <app-support>/NetworkInfo/logs"`
	Console     bool   `yaml:"console" env:"NETWORKINFO_LOG_CONSOLE" env-default:"true" env-description:"Also write logs to stdout"`
}

func New(cfg Config) *zap.SugaredLogger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	atomicLevel := zap.NewAtomicLevelAt(level)

	encoder := getEncoder()

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(getLogWriter(cfg)), atomicLevel),
	}
	if cfg.Console {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), atomicLevel))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
}

// ConfigureLogrus sends logrus output to the same rotated file and console
// as the zap logger so both streams end up in one log.
func ConfigureLogrus(cfg Config) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z0700",
		DisableColors:   true,
	})

	var out io.Writer = getLogWriter(cfg)
	if cfg.Console {
		out = io.MultiWriter(os.Stdout, out)
	}
	logrus.SetOutput(out)
}

func getEncoder() zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    CustomLevelEncoder,
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

var (
	writersMu sync.Mutex
	writers   = map[string]*lumberjack.Logger{}
)

// getLogWriter returns one lumberjack instance per file, shared by zap and logrus.
func getLogWriter(cfg Config) *lumberjack.Logger {
	writersMu.Lock()
	defer writersMu.Unlock()

	name := cfg.ServiceName
	if name == "" {
		name = "networkinfo"
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "logs"
	}
	filename := filepath.Join(dir, name+".log")
	if w, ok := writers[filename]; ok {
		return w
	}
	w := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    20, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	writers[filename] = w
	return w
}

func CustomLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + getIcon(level) + level.CapitalString() + "]")
}

func getIcon(lvl zapcore.Level) string {
	switch lvl {
	case zapcore.InfoLevel:
		return "🔵 "
	case zapcore.DebugLevel:
		return "🟢 "
	case zapcore.WarnLevel:
		return "🟡️ "
	case zapcore.ErrorLevel:
		return "🔴 "
	case zapcore.FatalLevel, zapcore.PanicLevel:
		return "⚫ "
	default:
		return ""
	}
}
