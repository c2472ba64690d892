// Package logsink wires the run logger: every run appends to its own
// timestamped log file, and per-item outcomes can optionally be echoed to an
// interactive console.
package logsink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// fs is used for mock tests. It will be overridden by afero.NewMemMapFs()
// in the tests.
var fs = afero.NewOsFs()

// logFileTimestamp is the layout for the timestamp embedded in log file
// names. It sorts lexicographically in chronological order.
const logFileTimestamp = "20060102-150405"

// LogFileName returns the name of the log file for a run starting at the
// clock's current time.
func LogFileName(clock clockwork.Clock) string {
	return fmt.Sprintf("mirror-%s.log", clock.Now().Format(logFileTimestamp))
}

// Open creates a logger that appends to a fresh timestamped log file under
// logDir. It returns the logger and the path of the file it writes to.
// The caller owns closing the returned file.
func Open(clock clockwork.Clock, logDir string) (*logrus.Logger, io.Closer, string, error) {
	path := filepath.Join(logDir, LogFileName(clock))
	file, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, "", err
	}

	logger := logrus.New()
	logger.SetOutput(file)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger, file, path, nil
}

// NewConsoleHook creates a hook that echoes log entries to w in addition to
// the logger's own output. Used when the run is interactive and the user
// wants to see per-item outcomes without tailing the log file.
func NewConsoleHook(w io.Writer) logrus.Hook {
	return &consoleHook{
		w: w,
		levels: []logrus.Level{
			logrus.InfoLevel, logrus.WarnLevel,
			logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel,
		},
	}
}

type consoleHook struct {
	w      io.Writer
	levels []logrus.Level
}

func (h *consoleHook) Levels() []logrus.Level {
	return h.levels
}

func (h *consoleHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}
	_, err = io.WriteString(h.w, line)
	return err
}
