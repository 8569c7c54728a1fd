package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	InfoLogger  = logrus.New()
	WarnLogger  = logrus.New()
	ErrorLogger = logrus.New()
)

// InitLoggers points the three loggers at stdout plus a rotating file under LOG_DIR.
// Safe to call more than once; the last call wins.
func InitLoggers() {
	dir := os.Getenv("LOG_DIR")
	if dir == "" {
		dir = "logs"
	}

	setup(InfoLogger, logrus.InfoLevel, rotating(filepath.Join(dir, "info.log")))
	setup(WarnLogger, logrus.WarnLevel, rotating(filepath.Join(dir, "warn.log")))
	setup(ErrorLogger, logrus.ErrorLevel, rotating(filepath.Join(dir, "error.log")))
}

func rotating(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
}

func setup(l *logrus.Logger, level logrus.Level, file io.Writer) {
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	l.SetOutput(io.MultiWriter(os.Stdout, file))
	l.SetLevel(level)
}
