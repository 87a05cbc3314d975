package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultGoogleURL = "https://translate.googleapis.com"

// Google talks to the public web translation endpoint (client=gtx).
// It needs no API key.
type Google struct {
	baseURL    string
	httpClient *http.Client
}

// NewGoogle creates a Google client. An empty baseURL selects the public endpoint.
func NewGoogle(baseURL string, timeout time.Duration) *Google {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Google{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (g *Google) Name() string { return ProviderGoogle }

// Translate calls /translate_a/single. With SourceLang "auto" the sl
// parameter is omitted and the detected language is taken from the response.
func (g *Google) Translate(ctx context.Context, req Request) (Result, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("dt", "t")
	params.Set("tl", req.TargetLang)
	if req.SourceLang != "" && req.SourceLang != Auto {
		params.Set("sl", req.SourceLang)
	}
	params.Set("q", req.Text)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/translate_a/single?"+params.Encode(), nil)
	if err != nil {
		return Result{}, &Error{Provider: ProviderGoogle, Err: fmt.Errorf("create request: %w", err)}
	}

	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, &Error{Provider: ProviderGoogle, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, &Error{Provider: ProviderGoogle, Status: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(body)))}
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Result{}, &Error{Provider: ProviderGoogle, Err: fmt.Errorf("decode response: %w", err)}
	}

	res, err := parseGoogle(raw)
	if err != nil {
		return Result{}, &Error{Provider: ProviderGoogle, Err: err}
	}
	if res.DetectedLang == "" && req.SourceLang != Auto {
		res.DetectedLang = req.SourceLang
	}

	logrus.WithFields(logrus.Fields{
		"provider": ProviderGoogle,
		"detected": res.DetectedLang,
		"took":     time.Since(start).Round(time.Millisecond),
	}).Debug("translation received")
	return res, nil
}

// parseGoogle reads [[["translated","source",...],...], null, "detected", ...].
func parseGoogle(raw []json.RawMessage) (Result, error) {
	if len(raw) == 0 {
		return Result{}, ErrEmptyResult
	}

	var segments [][]any
	if err := json.Unmarshal(raw[0], &segments); err != nil {
		return Result{}, fmt.Errorf("decode segments: %w", err)
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			sb.WriteString(s)
		}
	}

	var res Result
	res.Text = strings.TrimSpace(sb.String())
	if len(raw) > 2 {
		_ = json.Unmarshal(raw[2], &res.DetectedLang)
	}
	if res.Text == "" {
		return Result{}, ErrEmptyResult
	}
	return res, nil
}

// Ping translates a single word.
func (g *Google) Ping(ctx context.Context) bool {
	_, err := g.Translate(ctx, Request{Text: "hi", SourceLang: "en", TargetLang: "en"})
	return err == nil
}
