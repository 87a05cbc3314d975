// Package session models one trip of the translation popup:
// shown, translating, done, pasted back or dismissed.
package session

import (
	"errors"
	"fmt"
	"strings"

	"tranfastic/internal/focus"
)

// ErrInvalidTransition is returned when an operation does not apply
// to the current state.
var ErrInvalidTransition = errors.New("invalid session transition")

// State of the popup.
type State int

const (
	Hidden State = iota
	Shown
	Translating
	Completed
	Failed
	PastingBack
	Closed
	Cancelled
)

var stateNames = [...]string{"hidden", "shown", "translating", "completed", "failed", "pasting_back", "closed", "cancelled"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Status is what the popup status line shows.
type Status int

const (
	StatusIdle Status = iota
	StatusTranslating
	StatusDone
	StatusFailed
)

// Session is owned by the dispatch goroutine and is not safe for
// concurrent use.
type Session struct {
	ID         uint64
	Focus      focus.Handle
	SourceLang string
	TargetLang string

	state        State
	status       Status
	input        string
	translated   string
	detectedLang string
	failure      string
	cancelledIn  State
}

// New creates a hidden session bound to the window that had focus.
func New(id uint64, target focus.Handle, sourceLang, targetLang string) *Session {
	return &Session{ID: id, Focus: target, SourceLang: sourceLang, TargetLang: targetLang}
}

func (s *Session) State() State          { return s.state }
func (s *Session) Status() Status        { return s.status }
func (s *Session) Input() string         { return s.input }
func (s *Session) Translated() string    { return s.translated }
func (s *Session) DetectedLang() string  { return s.detectedLang }
func (s *Session) FailureReason() string { return s.failure }

// CancelledIn returns the state the session was in when it was cancelled.
func (s *Session) CancelledIn() State { return s.cancelledIn }

// Active reports whether the popup belongs to a live session.
func (s *Session) Active() bool {
	switch s.state {
	case Hidden, Closed, Cancelled:
		return false
	}
	return true
}

func (s *Session) transition(op string, to State, from ...State) error {
	for _, f := range from {
		if s.state == f {
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, op, s.state)
}

// Show makes the popup visible.
func (s *Session) Show() error {
	if err := s.transition("show", Shown, Hidden); err != nil {
		return err
	}
	s.status = StatusIdle
	return nil
}

// Submit starts a translation of text. Blank input is ignored and
// reported as false with no error.
func (s *Session) Submit(text string) (bool, error) {
	if s.state != Shown {
		return false, fmt.Errorf("%w: submit in state %s", ErrInvalidTransition, s.state)
	}
	if strings.TrimSpace(text) == "" {
		return false, nil
	}
	s.input = text
	s.failure = ""
	s.state = Translating
	s.status = StatusTranslating
	return true, nil
}

// Complete records a successful translation.
func (s *Session) Complete(translated, detected string) error {
	if err := s.transition("complete", Completed, Translating); err != nil {
		return err
	}
	s.translated = translated
	s.detectedLang = detected
	s.status = StatusDone
	return nil
}

// Fail records a failed translation. The popup goes back to Shown with
// the input kept so the user can retry.
func (s *Session) Fail(reason string) error {
	if err := s.transition("fail", Failed, Translating); err != nil {
		return err
	}
	s.failure = reason
	s.status = StatusFailed
	s.state = Shown
	return nil
}

// BeginPasteBack starts pasting the translation into the focus target.
func (s *Session) BeginPasteBack() error {
	return s.transition("paste back", PastingBack, Completed)
}

// Close finishes a paste back.
func (s *Session) Close() error {
	return s.transition("close", Closed, PastingBack)
}

// Cancel dismisses the popup. It is not allowed once paste back started.
func (s *Session) Cancel() error {
	prev := s.state
	if err := s.transition("cancel", Cancelled, Shown, Translating, Completed, Failed); err != nil {
		return err
	}
	s.cancelledIn = prev
	return nil
}
