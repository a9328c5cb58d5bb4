// Package gemini is a minimal client for the Gemini generateContent REST API,
// covering text prompts with optional inline images.
package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/httpclient"
)

// DefaultEndpoint is the public v1beta API root.
const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// InlineData carries base64-encoded bytes such as an image.
type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Part is one element of a content turn.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart builds an inline image part.
func ImagePart(mimeType string, data []byte) Part {
	return Part{InlineData: &InlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}}
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type generationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Client calls one Gemini model.
type Client struct {
	http     *httpclient.Client
	endpoint string
	apiKey   string
	model    string
}

// NewClient creates a client for the configured model. An API key is required.
func NewClient(settings *conf.GeminiSettings, hc *httpclient.Client) (*Client, error) {
	if strings.TrimSpace(settings.APIKey) == "" {
		return nil, errors.Newf("gemini api key is not configured").
			Component("gemini").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Model == "" {
		return nil, errors.Newf("gemini model is not configured").
			Component("gemini").
			Category(errors.CategoryConfiguration).
			Build()
	}
	endpoint := strings.TrimRight(settings.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if hc == nil {
		hc = httpclient.New(nil)
	}
	return &Client{http: hc, endpoint: endpoint, apiKey: settings.APIKey, model: settings.Model}, nil
}

// Model returns the model name.
func (c *Client) Model() string { return c.model }

// GenerateOptions tunes one request.
type GenerateOptions struct {
	JSONResponse bool     // ask for an application/json reply
	Temperature  *float64 // nil uses the model default
}

// GenerateContent sends one user turn and returns the concatenated text of the first candidate.
func (c *Client) GenerateContent(ctx context.Context, opts GenerateOptions, parts ...Part) (string, error) {
	req := generateRequest{Contents: []content{{Role: "user", Parts: parts}}}
	if opts.JSONResponse || opts.Temperature != nil {
		req.GenerationConfig = &generationConfig{Temperature: opts.Temperature}
		if opts.JSONResponse {
			req.GenerationConfig.ResponseMimeType = "application/json"
		}
	}

	target := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, url.PathEscape(c.model))
	headers := http.Header{}
	headers.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	var resp generateResponse
	if err := c.http.PostJSON(ctx, target, headers, req, &resp); err != nil {
		return "", errors.New(err).
			Component("gemini").
			Category(categorize(err)).
			Context("model", c.model).
			Timing("generate_content", time.Since(start)).
			Build()
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", c.replyError("prompt blocked: " + resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", c.replyError("no candidates in reply")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", c.replyError("empty candidate, finish reason " + resp.Candidates[0].FinishReason)
	}
	return sb.String(), nil
}

func (c *Client) replyError(msg string) error {
	return errors.Newf("gemini %s", msg).
		Component("gemini").
		Category(errors.CategoryIntegration).
		Context("model", c.model).
		Build()
}

func categorize(err error) errors.ErrorCategory {
	var statusErr *httpclient.StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return errors.CategoryTimeout
	case errors.Is(err, context.Canceled):
		return errors.CategoryCancellation
	case errors.As(err, &statusErr):
		return errors.CategoryHTTP
	default:
		return errors.CategoryNetwork
	}
}
