package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is usable before Init so packages can log from tests.
var Logger = logrus.New()

func Init(debug bool) {
	level := logrus.InfoLevel
	if debug {
		level = logrus.DebugLevel
	}

	Logger.SetOutput(os.Stdout)
	Logger.SetLevel(level)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

func Info(msg string, args ...any) {
	entry(args).Info(msg)
}

func Error(msg string, args ...any) {
	entry(args).Error(msg)
}

func Debug(msg string, args ...any) {
	entry(args).Debug(msg)
}

func Warn(msg string, args ...any) {
	entry(args).Warn(msg)
}

// entry turns alternating key/value args into logrus fields.
// A trailing key without a value is logged under "!BADKEY".
func entry(args []any) *logrus.Entry {
	fields := make(logrus.Fields, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fields["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields[key] = args[i+1]
	}
	return Logger.WithFields(fields)
}
