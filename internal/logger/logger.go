package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Log - общий логгер процесса. До вызова Init пишет в stderr с уровнем info.
var Log = logrus.New()

// Init настраивает уровень и формат логов под окружение.
// В development используется текстовый формат, во всех остальных окружениях JSON.
func Init(env, level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if env == "development" {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// Discard глушит логи (используется в тестах).
func Discard() {
	Log.SetOutput(io.Discard)
}
