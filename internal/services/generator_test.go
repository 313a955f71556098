package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaClient_Success(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(envelope(t, janeRoeJSON)))
	}))
	defer srv.Close()

	client := NewOllamaClient(srv.URL, "granite3.3", time.Second)
	raw, err := client.Generate(context.Background(), "prompt text")
	require.NoError(t, err)

	assert.Equal(t, generateRequest{Model: "granite3.3", Prompt: "prompt text", Format: "json", Stream: false}, got)
	assert.Equal(t, "granite3.3", client.Model())

	// The raw body is handed over untouched; the normalizer unwraps it.
	mapping, err := NewResponseNormalizer().Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", mapping["name"])
}

func TestOllamaClient_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewOllamaClient(srv.URL, "granite3.3", time.Second).Generate(context.Background(), "p")

	var endpointErr *EndpointError
	require.True(t, errors.As(err, &endpointErr))
	assert.Equal(t, KindEndpointError, endpointErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, endpointErr.StatusCode)
	assert.Contains(t, err.Error(), "model not loaded")
	assert.True(t, IsRetryable(err))
}

func TestOllamaClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewOllamaClient(srv.URL, "granite3.3", 50*time.Millisecond).Generate(context.Background(), "p")

	assert.Equal(t, KindEndpointTimeout, KindOf(err))
	assert.True(t, IsRetryable(err))
}

func TestOllamaClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewOllamaClient(url, "granite3.3", time.Second).Generate(context.Background(), "p")

	assert.Equal(t, KindEndpointUnavailable, KindOf(err))
	assert.True(t, IsRetryable(err))
}

func TestOllamaClient_CallerCancellationIsNotAnEndpointFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts watching for client disconnects.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewOllamaClient(srv.URL, "granite3.3", 5*time.Second).Generate(ctx, "p")

	assert.Equal(t, KindCancelled, KindOf(err))
	assert.False(t, IsRetryable(err))
}
