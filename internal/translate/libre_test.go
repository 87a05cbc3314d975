package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKeys map[string]string

func (m memKeys) Get(p string) (string, error) { return m[p], nil }
func (m memKeys) Set(p, k string) error        { m[p] = k; return nil }
func (m memKeys) Delete(p string) error        { delete(m, p); return nil }

func TestLibreTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/translate", r.URL.Path)
		var req libreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, libreRequest{Q: "hello", Source: "auto", Target: "tr", Format: "text", APIKey: "secret"}, req)
		_, _ = w.Write([]byte(`{"translatedText":"merhaba","detectedLanguage":{"language":"en","confidence":92}}`))
	}))
	defer srv.Close()

	tr, err := New(Config{Provider: ProviderLibre, URL: srv.URL}, memKeys{ProviderLibre: "secret"})
	require.NoError(t, err)
	assert.Equal(t, ProviderLibre, tr.Name())

	res, err := tr.Translate(context.Background(), Request{Text: "hello", SourceLang: Auto, TargetLang: "tr"})
	require.NoError(t, err)
	assert.Equal(t, Result{Text: "merhaba", DetectedLang: "en"}, res)
}

type brokenKeys struct{}

func (brokenKeys) Get(string) (string, error) { return "", errors.New("secret service not running") }
func (brokenKeys) Set(string, string) error   { return nil }
func (brokenKeys) Delete(string) error        { return nil }

func TestLibreWithoutKeyringStaysOnLibre(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req libreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Empty(t, req.APIKey)
		_, _ = w.Write([]byte(`{"translatedText":"merhaba"}`))
	}))
	defer srv.Close()

	tr, err := New(Config{Provider: ProviderLibre, URL: srv.URL}, brokenKeys{})
	require.NoError(t, err)
	assert.Equal(t, ProviderLibre, tr.Name())

	res, err := tr.Translate(context.Background(), Request{Text: "hello", SourceLang: "en", TargetLang: "tr"})
	require.NoError(t, err)
	assert.Equal(t, "merhaba", res.Text)
}

func TestLibreErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"Invalid API key"}`))
	}))
	defer srv.Close()

	_, err := NewLibre(srv.URL, "", time.Second).Translate(context.Background(), Request{Text: "hello", SourceLang: "en", TargetLang: "tr"})

	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusForbidden, te.Status)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "babelfish"}, nil)
	assert.ErrorIs(t, err, ErrUnknownProvider)

	g, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, g.Name())
}

func TestLanguages(t *testing.T) {
	assert.True(t, IsSupported(Auto, true))
	assert.False(t, IsSupported(Auto, false))
	assert.True(t, IsSupported("tr", false))
	assert.False(t, IsSupported("xx", true))
	assert.Equal(t, "Turkish", LanguageName("tr"))
	assert.Equal(t, "xx", LanguageName("xx"))
	assert.Equal(t, Auto, SourceLanguages()[0].Code)
	for _, l := range TargetLanguages() {
		assert.NotEqual(t, Auto, l.Code)
	}
}
