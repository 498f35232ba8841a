package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_GenerateStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"Hello", ", ", "world"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", delta)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	p := &openAIProvider{name: "openai", apiKey: "test-key", baseURL: server.URL}

	var deltas []string
	full, err := p.GenerateStream(context.Background(), "gpt-test", "say hello", func(delta string) {
		deltas = append(deltas, delta)
	})
	require.NoError(t, err)
	require.Equal(t, "Hello, world", full)
	require.Equal(t, []string{"Hello", ", ", "world"}, deltas)
}

func TestOpenAIProvider_GenerateBlocking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":" generated text "}}]}`)
	}))
	defer server.Close()

	p := &openAIProvider{name: "openai", apiKey: "test-key", baseURL: server.URL}
	out, err := p.Generate(context.Background(), "gpt-test", "prompt")
	require.NoError(t, err)
	require.Equal(t, "generated text", out)
}

func TestOpenAIProvider_UpstreamErrorIsInferenceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := &openAIProvider{name: "openai", apiKey: "test-key", baseURL: server.URL}
	_, err := p.Generate(context.Background(), "gpt-test", "prompt")
	require.Error(t, err)

	var infErr *InferenceError
	require.ErrorAs(t, err, &infErr)
	require.Equal(t, "openai", infErr.Provider)
	require.Contains(t, infErr.Message, "model overloaded")
}

func TestOpenAIProvider_MissingKeyIsUnavailable(t *testing.T) {
	p := &openAIProvider{name: "openai", baseURL: defaultOpenAIBaseURL}
	_, err := p.Generate(context.Background(), "gpt-test", "prompt")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestNewProvider_UnknownName(t *testing.T) {
	_, err := NewProvider("does-not-exist", map[string]string{})
	require.Error(t, err)
}

func TestNewProvider_Registered(t *testing.T) {
	p, err := NewProvider("openrouter", map[string]string{"api_key": "k"})
	require.NoError(t, err)
	require.Equal(t, "openrouter", p.Name())
}
