package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tiny", req.Model)
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, "from English to Turkish")
		assert.Contains(t, req.Prompt, "hello")
		_, _ = w.Write([]byte(`{"response":"  merhaba\n","done":true}`))
	}))
	defer srv.Close()

	tr, err := New(Config{Provider: ProviderOllama, URL: srv.URL, Model: "tiny"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, tr.Name())

	res, err := tr.Translate(context.Background(), Request{Text: "hello", SourceLang: "en", TargetLang: "tr"})
	require.NoError(t, err)
	assert.Equal(t, Result{Text: "merhaba", DetectedLang: "en"}, res)
}

func TestOllamaAutoSourceHasNoDetectedLanguage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Prompt, "from the source language to Turkish")
		_, _ = w.Write([]byte(`{"response":"merhaba","done":true}`))
	}))
	defer srv.Close()

	res, err := NewOllama(srv.URL, "", time.Second).Translate(context.Background(), Request{Text: "hello", SourceLang: Auto, TargetLang: "tr"})
	require.NoError(t, err)
	assert.Empty(t, res.DetectedLang)
}

func TestOllamaModelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'tiny' not found"}`))
	}))
	defer srv.Close()

	_, err := NewOllama(srv.URL, "tiny", time.Second).Translate(context.Background(), Request{Text: "hello", SourceLang: "en", TargetLang: "tr"})

	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusNotFound, te.Status)
	assert.Contains(t, err.Error(), "not found")
}

func TestOllamaPingAndModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"qwen2.5:1.5b"},{"name":"llama3.2"}]}`))
	}))
	defer srv.Close()

	o := NewOllama(srv.URL, "", time.Second)
	assert.Equal(t, DefaultOllamaModel, o.Model())
	assert.True(t, o.Ping(context.Background()))

	models, err := o.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"qwen2.5:1.5b", "llama3.2"}, models)
}
