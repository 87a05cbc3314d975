package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const DefaultLibreURL = "https://libretranslate.com"

// Libre is a LibreTranslate client.
type Libre struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewLibre creates a LibreTranslate client.
func NewLibre(baseURL, apiKey string, timeout time.Duration) *Libre {
	if baseURL == "" {
		baseURL = DefaultLibreURL
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Libre{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (l *Libre) Name() string { return ProviderLibre }

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage *struct {
		Language   string  `json:"language"`
		Confidence float64 `json:"confidence"`
	} `json:"detectedLanguage,omitempty"`
	Error string `json:"error,omitempty"`
}

func (l *Libre) Translate(ctx context.Context, req Request) (Result, error) {
	source := req.SourceLang
	if source == "" {
		source = Auto
	}
	body, err := json.Marshal(libreRequest{
		Q:      req.Text,
		Source: source,
		Target: req.TargetLang,
		Format: "text",
		APIKey: l.apiKey,
	})
	if err != nil {
		return Result{}, &Error{Provider: ProviderLibre, Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return Result{}, &Error{Provider: ProviderLibre, Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, &Error{Provider: ProviderLibre, Err: err}
	}
	defer resp.Body.Close()

	var out libreResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode != http.StatusOK {
		msg := out.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return Result{}, &Error{Provider: ProviderLibre, Status: resp.StatusCode, Err: errors.New(msg)}
	}
	if decodeErr != nil {
		return Result{}, &Error{Provider: ProviderLibre, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}

	res := Result{Text: strings.TrimSpace(out.TranslatedText)}
	if res.Text == "" {
		return Result{}, &Error{Provider: ProviderLibre, Err: ErrEmptyResult}
	}
	if out.DetectedLanguage != nil {
		res.DetectedLang = out.DetectedLanguage.Language
	} else if source != Auto {
		res.DetectedLang = source
	}
	return res, nil
}

// Ping checks the /languages endpoint.
func (l *Libre) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/languages", nil)
	if err != nil {
		return false
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
