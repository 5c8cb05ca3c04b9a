package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/lingocode/internal/llm"
)

func TestProvider_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3-70b-8192", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "hello", req.Messages[1].Content)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  world  "}}],"usage":{"total_tokens":7}}`))
	}))
	defer srv.Close()

	p := NewProvider("key", "llama3-70b-8192", srv.URL+"/")
	resp, err := p.Complete(context.Background(), llm.Request{System: "sys", Prompt: "hello"}, "")
	require.NoError(t, err)
	assert.Equal(t, "world", resp.Content)
	assert.Equal(t, 7, resp.TokensUsed)
	assert.Equal(t, "llama3-70b-8192", resp.Model)
}

func TestProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewProvider("key", "", srv.URL)
	_, err := p.Complete(context.Background(), llm.Request{Prompt: "hello"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestProvider_IsConfigured(t *testing.T) {
	assert.False(t, NewProvider("", "", "").IsConfigured())
	assert.True(t, NewProvider("key", "", "").IsConfigured())
	assert.Equal(t, "gpt-4o-mini", NewProvider("key", "", "").DefaultModel())
}
