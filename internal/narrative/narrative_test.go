package narrative

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/gemini"
	"github.com/litterscan/litterscan/internal/httpclient"
)

func newAnthropicServer(t *testing.T, handler http.HandlerFunc) *Anthropic {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gen, err := NewAnthropic(&conf.AnthropicSettings{
		APIKey:   "test-key",
		Model:    "claude-test",
		Endpoint: server.URL + "/",
	})
	require.NoError(t, err)
	return gen
}

func TestAnthropicGenerate(t *testing.T) {
	gen := newAnthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-test", body.Model)
		assert.Equal(t, defaultAnthropicMaxTokens, body.MaxTokens)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "user", body.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "{\"summary\":"}, {"type": "text", "text": "\"ok\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	})

	text, err := gen.Generate(context.Background(), "analyze")
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"ok"}`, text)
	assert.Equal(t, conf.ProviderAnthropic, gen.Provider())
}

func TestAnthropicGenerateError(t *testing.T) {
	gen := newAnthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	})

	_, err := gen.Generate(context.Background(), "analyze")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNarrative))
}

func TestGeminiGenerate(t *testing.T) {
	hc := httpclient.New(nil)
	httpmock.ActivateNonDefault(hc.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	client, err := gemini.NewClient(&conf.GeminiSettings{APIKey: "k", Model: "flash", Endpoint: "https://gemini.test"}, hc)
	require.NoError(t, err)
	gen := NewGemini(client)

	httpmock.RegisterResponder(http.MethodPost, "https://gemini.test/models/flash:generateContent",
		httpmock.NewStringResponder(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`))

	text, err := gen.Generate(context.Background(), "analyze")
	require.NoError(t, err)
	assert.Equal(t, "{}", text)

	httpmock.RegisterResponder(http.MethodPost, "https://gemini.test/models/flash:generateContent",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))
	_, err = gen.Generate(context.Background(), "analyze")
	assert.True(t, errors.IsCategory(err, errors.CategoryNarrative))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		settings conf.NarrativeSettings
		provider string
		wantErr  bool
	}{
		{name: "none", settings: conf.NarrativeSettings{Provider: conf.ProviderNone}, provider: conf.ProviderNone},
		{name: "gemini", settings: conf.NarrativeSettings{Provider: conf.ProviderGemini, Gemini: conf.GeminiSettings{APIKey: "k", Model: "m"}}, provider: conf.ProviderGemini},
		{name: "anthropic", settings: conf.NarrativeSettings{Provider: conf.ProviderAnthropic, Anthropic: conf.AnthropicSettings{APIKey: "k", Model: "m"}}, provider: conf.ProviderAnthropic},
		{name: "anthropic without key", settings: conf.NarrativeSettings{Provider: conf.ProviderAnthropic}, wantErr: true},
		{name: "unknown", settings: conf.NarrativeSettings{Provider: "oracle"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := New(&tt.settings, nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.provider, gen.Provider())
		})
	}
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrDisabled)
}
