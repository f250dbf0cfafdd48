package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach/internal/config"
)

const completionJSON = `{"id":"c1","object":"chat.completion","created":1,"model":"test-model",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  Ist der Kamin noch original?  "}}]}`

func testConfig(url string) config.LLMConfig {
	return config.LLMConfig{
		Provider: "openai", Model: "test-model", APIKey: "sk-test", BaseURL: url,
		MaxAttempts: 3, BaseBackoffMS: 1, TimeoutSec: 5,
	}
}

func TestOpenAIGenerateRetriesOn429(t *testing.T) {
	var calls int32
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		if n == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		require.NoError(t, json.Unmarshal(b, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionJSON)
	}))
	defer srv.Close()

	c := NewOpenAI(testConfig(srv.URL))
	out, err := c.Generate(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, "Ist der Kamin noch original?", out)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	assert.Equal(t, "test-model", body["model"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestOpenAIGenerateGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewOpenAI(testConfig(srv.URL)).Generate(context.Background(), "s", "u")
	assert.Error(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestOpenAIEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer srv.Close()

	_, err := NewOpenAI(testConfig(srv.URL)).Generate(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewProviders(t *testing.T) {
	c, err := New(config.LLMConfig{Provider: "none"})
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = New(config.LLMConfig{Provider: "openai"})
	assert.Error(t, err)

	_, err = New(config.LLMConfig{Provider: "bard"})
	assert.Error(t, err)

	c, err = New(testConfig("http://127.0.0.1:1"))
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestFuncAdapter(t *testing.T) {
	var f Client = Func(func(_ context.Context, s, u string) (string, error) { return s + "|" + u, nil })
	out, err := f.Generate(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a|b", out)
}
