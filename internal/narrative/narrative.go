// Package narrative generates free-text insights from a prompt using a hosted
// language model. Callers must treat every failure as recoverable.
package narrative

import (
	"context"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/gemini"
	"github.com/litterscan/litterscan/internal/httpclient"
)

// ErrDisabled is returned by the none provider.
var ErrDisabled = errors.NewStd("narrative generation is disabled")

// Generator produces a reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Provider() string
}

// New builds the generator selected by settings.
func New(settings *conf.NarrativeSettings, hc *httpclient.Client) (Generator, error) {
	switch settings.Provider {
	case conf.ProviderGemini:
		client, err := gemini.NewClient(&settings.Gemini, hc)
		if err != nil {
			return nil, err
		}
		return NewGemini(client), nil
	case conf.ProviderAnthropic:
		return NewAnthropic(&settings.Anthropic)
	case conf.ProviderNone, "":
		return Disabled{}, nil
	default:
		return nil, errors.Newf("unknown narrative provider %q", settings.Provider).
			Component("narrative").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// Disabled always fails with ErrDisabled so callers use their local fallback.
type Disabled struct{}

func (Disabled) Generate(context.Context, string) (string, error) { return "", ErrDisabled }
func (Disabled) Provider() string                                 { return conf.ProviderNone }

// wrap tags a provider failure with the narrative category.
func wrap(err error, provider string) error {
	return errors.New(err).
		Component("narrative").
		Category(errors.CategoryNarrative).
		Context("provider", provider).
		Build()
}
