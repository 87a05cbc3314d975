package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleTranslateAutoOmitsSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate_a/single", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "gtx", q.Get("client"))
		assert.Equal(t, "t", q.Get("dt"))
		assert.Equal(t, "tr", q.Get("tl"))
		assert.Equal(t, "hello", q.Get("q"))
		assert.False(t, q.Has("sl"), "auto source must not be sent")
		_, _ = w.Write([]byte(`[[["merhaba","hello",null,null,10]],null,"en",null,null,null,1]`))
	}))
	defer srv.Close()

	g := NewGoogle(srv.URL, time.Second)
	res, err := g.Translate(context.Background(), Request{Text: "hello", SourceLang: Auto, TargetLang: "tr"})

	require.NoError(t, err)
	assert.Equal(t, Result{Text: "merhaba", DetectedLang: "en"}, res)
}

func TestGoogleTranslateExplicitSourceAndSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "de", r.URL.Query().Get("sl"))
		_, _ = w.Write([]byte(`[[["Hello. ","Hallo. ",null,null,3],["How are you?","Wie geht's?",null,null,3]],null,"de"]`))
	}))
	defer srv.Close()

	res, err := NewGoogle(srv.URL, time.Second).Translate(context.Background(), Request{Text: "Hallo. Wie geht's?", SourceLang: "de", TargetLang: "en"})

	require.NoError(t, err)
	assert.Equal(t, "Hello. How are you?", res.Text)
	assert.Equal(t, "de", res.DetectedLang)
}

func TestGoogleTranslateFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "http error",
			status: http.StatusTooManyRequests,
			body:   "rate limited",
			check: func(t *testing.T, err error) {
				var te *Error
				require.ErrorAs(t, err, &te)
				assert.Equal(t, http.StatusTooManyRequests, te.Status)
			},
		},
		{
			name:   "empty translation",
			status: http.StatusOK,
			body:   `[[["","hello",null,null,1]],null,"en"]`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyResult)
			},
		},
		{
			name:   "garbage",
			status: http.StatusOK,
			body:   `<html>`,
			check: func(t *testing.T, err error) {
				var te *Error
				require.ErrorAs(t, err, &te)
				assert.Equal(t, ProviderGoogle, te.Provider)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewGoogle(srv.URL, time.Second).Translate(context.Background(), Request{Text: "hello", SourceLang: Auto, TargetLang: "tr"})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestGoogleTranslateHonorsCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewGoogle(srv.URL, 5*time.Second).Translate(ctx, Request{Text: "hello", SourceLang: Auto, TargetLang: "tr"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGooglePing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[["hi","hi",null,null,1]],null,"en"]`))
	}))
	defer srv.Close()

	assert.True(t, NewGoogle(srv.URL, time.Second).Ping(context.Background()))

	srv.Close()
	assert.False(t, NewGoogle(srv.URL, 200*time.Millisecond).Ping(context.Background()))
}
