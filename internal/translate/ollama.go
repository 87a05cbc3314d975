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

	"github.com/sirupsen/logrus"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "qwen2.5:1.5b"
)

// Ollama translates with a local model served by Ollama.
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllama creates an Ollama client. Empty values select the defaults.
func NewOllama(baseURL, model string, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Ollama{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (o *Ollama) Name() string { return ProviderOllama }

// Model returns the model name sent with every request.
func (o *Ollama) Model() string { return o.model }

type generateRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Stream  bool   `json:"stream"`
	Options struct {
		Temperature float64 `json:"temperature"`
		NumPredict  int     `json:"num_predict"`
	} `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func ollamaPrompt(req Request) string {
	from := "the source language"
	if req.SourceLang != "" && req.SourceLang != Auto {
		from = LanguageName(req.SourceLang)
	}
	return fmt.Sprintf("Translate the following text from %s to %s. Reply with the translation only, no explanations:\n\n%s",
		from, LanguageName(req.TargetLang), req.Text)
}

// Translate asks the model for a translation. Ollama does not report the
// detected language, so DetectedLang is set only for an explicit source.
func (o *Ollama) Translate(ctx context.Context, req Request) (Result, error) {
	gen := generateRequest{Model: o.model, Prompt: ollamaPrompt(req)}
	gen.Options.Temperature = 0.1
	gen.Options.NumPredict = 500

	body, err := json.Marshal(gen)
	if err != nil {
		return Result{}, &Error{Provider: ProviderOllama, Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Result{}, &Error{Provider: ProviderOllama, Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	logrus.WithFields(logrus.Fields{"model": o.model, "chars": len(req.Text)}).Debug("ollama: sending request")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, &Error{Provider: ProviderOllama, Err: err}
	}
	defer resp.Body.Close()

	var out generateResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode != http.StatusOK {
		msg := out.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return Result{}, &Error{Provider: ProviderOllama, Status: resp.StatusCode, Err: errors.New(msg)}
	}
	if decodeErr != nil {
		return Result{}, &Error{Provider: ProviderOllama, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if out.Error != "" {
		return Result{}, &Error{Provider: ProviderOllama, Err: errors.New(out.Error)}
	}

	res := Result{Text: strings.TrimSpace(out.Response)}
	if res.Text == "" {
		return Result{}, &Error{Provider: ProviderOllama, Err: ErrEmptyResult}
	}
	if req.SourceLang != Auto {
		res.DetectedLang = req.SourceLang
	}
	return res, nil
}

// Ping checks /api/tags.
func (o *Ollama) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ListModels returns the models installed in Ollama.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Provider: ProviderOllama, Err: err}
	}
	defer resp.Body.Close()

	var out struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &Error{Provider: ProviderOllama, Err: fmt.Errorf("decode models: %w", err)}
	}

	models := make([]string, len(out.Models))
	for i, m := range out.Models {
		models[i] = m.Name
	}
	return models, nil
}
