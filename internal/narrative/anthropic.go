package narrative

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/errors"
)

const defaultAnthropicMaxTokens = 1024

// Anthropic generates narratives with the Anthropic messages API.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic creates a messages client. An API key and model are required.
func NewAnthropic(settings *conf.AnthropicSettings, opts ...option.RequestOption) (*Anthropic, error) {
	if strings.TrimSpace(settings.APIKey) == "" || settings.Model == "" {
		return nil, errors.Newf("anthropic api key and model must be configured").
			Component("narrative").
			Category(errors.CategoryConfiguration).
			Build()
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(settings.APIKey),
		option.WithMaxRetries(1),
	}
	if settings.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(settings.Endpoint))
	}
	clientOpts = append(clientOpts, opts...)

	maxTokens := int64(settings.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	return &Anthropic{
		client:    anthropic.NewClient(clientOpts...),
		model:     settings.Model,
		maxTokens: maxTokens,
	}, nil
}

func (a *Anthropic) Provider() string { return conf.ProviderAnthropic }

// Generate sends prompt as a single user message and joins the text blocks of the reply.
func (a *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", wrap(err, conf.ProviderAnthropic)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", wrap(errors.NewStd("reply contained no text"), conf.ProviderAnthropic)
	}
	return sb.String(), nil
}
