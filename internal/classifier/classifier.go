// Package classifier turns raw images into classified waste items.
package classifier

import (
	"context"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/detection"
	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/gemini"
	"github.com/litterscan/litterscan/internal/httpclient"
	"github.com/litterscan/litterscan/internal/logger"
)

// Classifier detects waste items in an image. An empty result means nothing was found.
type Classifier interface {
	Classify(ctx context.Context, image []byte, mimeType string) ([]detection.Item, error)
	// ModelVersion is recorded on every record produced from this classifier's output.
	ModelVersion() string
	// Provider names the backing service for metrics.
	Provider() string
}

// GetLogger returns the classifier module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("classifier")
}

// New builds the classifier selected by settings.
func New(settings *conf.VisionSettings, hc *httpclient.Client) (Classifier, error) {
	switch settings.Provider {
	case conf.ProviderGemini:
		client, err := gemini.NewClient(&settings.Gemini, hc)
		if err != nil {
			return nil, err
		}
		return NewGeminiClassifier(client), nil
	case conf.ProviderNone, "":
		return Noop{}, nil
	default:
		return nil, errors.Newf("unknown vision provider %q", settings.Provider).
			Component("classifier").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// Noop never detects anything. It is used when no vision provider is configured.
type Noop struct{}

func (Noop) Classify(context.Context, []byte, string) ([]detection.Item, error) { return nil, nil }
func (Noop) ModelVersion() string                                               { return "none" }
func (Noop) Provider() string                                                   { return conf.ProviderNone }
