// Package translate provides clients for machine translation services.
package translate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	ProviderGoogle = "google"
	ProviderLibre  = "libretranslate"
	ProviderOllama = "ollama"

	DefaultTimeout = 15 * time.Second
)

var (
	// ErrEmptyResult is returned when the service answers with no text.
	ErrEmptyResult = errors.New("empty translation")
	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown translation provider")
)

// Request is a single translation request. SourceLang "auto" lets the
// service detect the language.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
}

// Result is a successful translation.
type Result struct {
	Text         string
	DetectedLang string
}

// Translator translates text. Implementations must honor ctx cancellation.
type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
	// Ping reports whether the service is reachable.
	Ping(ctx context.Context) bool
	Name() string
}

// Error describes a failed call to a translation service.
type Error struct {
	Provider string
	Status   int // HTTP status, 0 for transport errors
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config selects and configures a provider.
type Config struct {
	Provider string
	URL      string // empty means the provider default
	Model    string // ollama only
	Timeout  time.Duration
}

// New creates a translator for cfg.Provider. keys may be nil for
// providers that do not need an API key.
func New(cfg Config, keys KeyStore) (Translator, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	switch cfg.Provider {
	case "", ProviderGoogle:
		return NewGoogle(cfg.URL, timeout), nil
	case ProviderLibre:
		apiKey := ""
		if keys != nil {
			k, err := keys.Get(ProviderLibre)
			if err != nil {
				// Self-hosted servers often run without a key; never switch services here
				logrus.WithError(err).WithField("provider", ProviderLibre).Warn("api key unavailable, continuing without it")
			}
			apiKey = k
		}
		return NewLibre(cfg.URL, apiKey, timeout), nil
	case ProviderOllama:
		return NewOllama(cfg.URL, cfg.Model, timeout), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
}

// Providers returns the supported provider names.
func Providers() []string {
	return []string{ProviderGoogle, ProviderLibre, ProviderOllama}
}
