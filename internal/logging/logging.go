// Package logging configures logrus for the whole process.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// EnvLevel overrides the log level (debug, info, warn, error).
const EnvLevel = "TRANFASTIC_LOG_LEVEL"

const previewRunes = 50

var (
	redactMu sync.RWMutex
	secrets  = map[string]struct{}{}
	replacer = strings.NewReplacer()
)

// Setup installs the formatter and level and mirrors output into
// <dir>/logs/tranfastic.log. The returned closer flushes the file.
// If the file cannot be opened logging continues on stderr only.
func Setup(dir string) (io.Closer, error) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		DisableColors:    true,
		QuoteEmptyFields: true,
	})

	level := logrus.InfoLevel
	if s := os.Getenv(EnvLevel); s != "" {
		if l, err := logrus.ParseLevel(s); err == nil {
			level = l
		}
	}
	logrus.SetLevel(level)

	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		logrus.SetOutput(&redactingWriter{dst: os.Stderr})
		return io.NopCloser(nil), fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, "tranfastic.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		logrus.SetOutput(&redactingWriter{dst: os.Stderr})
		return io.NopCloser(nil), fmt.Errorf("open log file: %w", err)
	}

	logrus.SetOutput(&redactingWriter{dst: io.MultiWriter(os.Stderr, f)})
	return f, nil
}

// AddSecret makes every later log line replace s with [REDACTED].
func AddSecret(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}

	redactMu.Lock()
	defer redactMu.Unlock()
	if _, ok := secrets[s]; ok {
		return
	}
	secrets[s] = struct{}{}

	pairs := make([]string, 0, len(secrets)*2)
	for sec := range secrets {
		pairs = append(pairs, sec, "[REDACTED]")
	}
	replacer = strings.NewReplacer(pairs...)
}

// Preview shortens user text for log lines.
func Preview(s string) string {
	r := []rune(s)
	if len(r) <= previewRunes {
		return s
	}
	return string(r[:previewRunes]) + "..."
}

type redactingWriter struct {
	dst io.Writer
	mu  sync.Mutex
}

func (w *redactingWriter) Write(p []byte) (int, error) {
	redactMu.RLock()
	r := replacer
	redactMu.RUnlock()

	out := []byte(r.Replace(string(p)))
	// logrus writes whole entries; keep them on one line
	if i := bytes.IndexByte(out, '\n'); i >= 0 && i < len(out)-1 {
		out = append(bytes.ReplaceAll(out[:len(out)-1], []byte("\n"), []byte(`\n`)), '\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.dst.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
