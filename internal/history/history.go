// Package history appends finished translations to daily text files.
package history

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const queueSize = 64

// Entry is one finished translation.
type Entry struct {
	Time       time.Time
	SourceLang string
	TargetLang string
	Text       string
	Translated string
}

// Line renders the entry as it is stored on disk.
func (e Entry) Line() string {
	return fmt.Sprintf("[%s] %s -> %s | %s => %s\n",
		e.Time.Format("15:04:05"), e.SourceLang, e.TargetLang, oneLine(e.Text), oneLine(e.Translated))
}

// FileName returns the daily file name for the entry.
func (e Entry) FileName() string {
	return e.Time.Format("2006-01-02") + ".txt"
}

func oneLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

// Sink writes entries in the background. Record never blocks the caller.
type Sink struct {
	dir     string
	queue   chan Entry
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool
}

// New starts a sink writing into dir.
func New(dir string) *Sink {
	s := &Sink{
		dir:   dir,
		queue: make(chan Entry, queueSize),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Dir returns the history directory.
func (s *Sink) Dir() string { return s.dir }

// Record queues an entry. It reports false if the entry was dropped.
func (s *Sink) Record(e Entry) bool {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.queue <- e:
		return true
	default:
		logrus.Warn("History queue full, entry dropped")
		return false
	}
}

// Close writes out queued entries and stops the writer.
func (s *Sink) Close() {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.closeMu.Unlock()

	<-s.done
}

func (s *Sink) run() {
	defer close(s.done)
	for e := range s.queue {
		if err := s.write(e); err != nil {
			logrus.WithError(err).Warn("Failed to write history")
		}
	}
}

func (s *Sink) write(e Entry) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(s.dir, e.FileName()), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(e.Line()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Open shows the history directory in the system file manager.
func (s *Sink) Open() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", s.dir)
	case "windows":
		cmd = exec.Command("explorer", s.dir)
	default:
		cmd = exec.Command("xdg-open", s.dir)
	}
	return cmd.Start()
}
