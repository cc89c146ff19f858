// Package debug provides conditional debug logging.
//
// Debug logging is enabled by setting the ETCD_GUI_DEBUG environment
// variable:
//
//	ETCD_GUI_DEBUG=1 etcdgui
//
// The TUI owns stdout and stderr, so messages are written to a log file
// (ETCD_GUI_DEBUG_FILE, defaulting to <state dir>/debug.log) with logrus
// timestamps. When disabled (default), all debug functions are no-ops.
package debug

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	enabled bool
	logger  *logrus.Logger
)

func init() {
	if os.Getenv("ETCD_GUI_DEBUG") == "" {
		return
	}
	Enable(os.Getenv("ETCD_GUI_DEBUG_FILE"))
}

// Enable turns on debug logging to the given file path. An empty path uses
// the default location. Failure to open the file leaves logging disabled.
func Enable(path string) {
	if path == "" {
		path = defaultLogPath()
	}
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return
	}

	logger = logrus.New()
	logger.SetOutput(f)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
	})
	enabled = true
}

// SetOutput redirects debug output, mainly for tests.
func SetOutput(w io.Writer) {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.DebugLevel)
	}
	logger.SetOutput(w)
	enabled = true
}

func defaultLogPath() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir != "" {
		return filepath.Join(dir, "etcd-gui", "debug.log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "etcd-gui", "debug.log")
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Debugf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.WithField("took", d.String()).Debug(name)
}

// WithFields returns a structured entry when enabled, or nil. Callers chain
// immediately:
//
//	if e := debug.WithFields(logrus.Fields{"prefix": p}); e != nil {
//	    e.Debug("listing keys")
//	}
func WithFields(fields logrus.Fields) *logrus.Entry {
	if !enabled {
		return nil
	}
	return logger.WithFields(fields)
}

// LogEnterExit logs function entry and exit with timing.
//
//	func myFunc() {
//	    defer debug.LogEnterExit("myFunc")()
//	    // ...
//	}
func LogEnterExit(name string) func() {
	if !enabled {
		return func() {}
	}
	logger.Debugf("-> %s", name)
	start := time.Now()
	return func() {
		logger.Debugf("<- %s (%v)", name, time.Since(start))
	}
}
