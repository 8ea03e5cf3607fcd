package log // import "github.com/anxkit/anx-sync/log"

import (
	"os"

	"github.com/anxkit/anx-sync/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger *zap.Logger

func init() {
	Logger = NewLogger(nil)
}

func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, fields...)
}

// SetLevel changes the level of both cores at runtime.
func SetLevel(level string) {
	if l, err := zapcore.ParseLevel(level); err == nil {
		logLevel.SetLevel(l)
	}
}

var logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// NewLogger builds the console+file tee from the log settings in opts. A nil
// opts keeps the built-in defaults so logging works before config load.
func NewLogger(opts *config.Options) *zap.Logger {
	rotationLog := &lumberjack.Logger{
		Filename:   "anx-sync.log",
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	if opts != nil {
		if opts.LogFile != "" {
			rotationLog.Filename = opts.LogFile
		}
		if opts.LogFileMaxSize > 0 {
			rotationLog.MaxSize = opts.LogFileMaxSize
		}
		if opts.LogFileMaxBackups > 0 {
			rotationLog.MaxBackups = opts.LogFileMaxBackups
		}
		if opts.LogFileMaxAge > 0 {
			rotationLog.MaxAge = opts.LogFileMaxAge
		}
		rotationLog.Compress = opts.LogCompress
		SetLevel(opts.LogLevel)
	}

	return newZap(rotationLog)
}

func newZap(rotationLog *lumberjack.Logger) *zap.Logger {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder

	fileEncoder := zapcore.NewJSONEncoder(config)
	consoleEncoder := zapcore.NewConsoleEncoder(config)

	consoleWriter := zapcore.AddSync(os.Stdout)
	rotationWrite := zapcore.AddSync(rotationLog)

	consoleCore := zapcore.NewCore(consoleEncoder, consoleWriter, logLevel)
	rotationCore := zapcore.NewCore(fileEncoder, rotationWrite, logLevel)

	core := zapcore.NewTee(consoleCore, rotationCore)

	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
}
