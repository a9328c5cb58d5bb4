package classifier

import (
	"context"
	"net/http"
	"strings"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/detection"
	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/gemini"
	"github.com/litterscan/litterscan/internal/llmjson"
	"github.com/litterscan/litterscan/internal/logger"
)

// GeminiModelVersion is stored as model_version on records classified by Gemini.
const GeminiModelVersion = "gemini-vision"

const classifyPrompt = `Analyze this image and identify any trash or waste items visible.

For each item you detect, provide:
1. The type of trash (e.g., plastic bottle, paper cup, cardboard box, glass bottle, aluminium can, food waste, cigarette butt, etc.)
2. The material it's made from (plastic, paper, cardboard, glass, metal, biodegradable/organic)
3. Your confidence level (0.0 to 1.0)
4. Disposal category: "recyclable", "compost", or "landfill"

IMPORTANT: Only identify actual trash/waste items. Ignore people, buildings, vehicles, plants, etc.
Format your response as a JSON array like this:
[
    {
        "type": "plastic water bottle",
        "material": "plastic",
        "confidence": 0.95,
        "disposal_category": "recyclable"
    }
]
If no trash is visible, return an empty array: []`

// contentGenerator is the part of the Gemini client used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, opts gemini.GenerateOptions, parts ...gemini.Part) (string, error)
}

// GeminiClassifier asks a Gemini vision model for a JSON list of items.
type GeminiClassifier struct {
	client contentGenerator
}

// NewGeminiClassifier wraps a Gemini client.
func NewGeminiClassifier(client *gemini.Client) *GeminiClassifier {
	return &GeminiClassifier{client: client}
}

func (g *GeminiClassifier) ModelVersion() string { return GeminiModelVersion }
func (g *GeminiClassifier) Provider() string     { return conf.ProviderGemini }

// Classify sends the image with the classification prompt and decodes the reply.
// Items without a type are dropped; the rest are normalized.
func (g *GeminiClassifier) Classify(ctx context.Context, image []byte, mimeType string) ([]detection.Item, error) {
	if len(image) == 0 {
		return nil, errors.Newf("empty image").
			Component("classifier").
			Category(errors.CategoryValidation).
			Build()
	}
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(image)
		if !strings.HasPrefix(mimeType, "image/") {
			mimeType = "image/jpeg"
		}
	}

	reply, err := g.client.GenerateContent(ctx, gemini.GenerateOptions{JSONResponse: true},
		gemini.TextPart(classifyPrompt), gemini.ImagePart(mimeType, image))
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryClassification).
			Context("provider", conf.ProviderGemini).
			Build()
	}

	var raw []detection.Item
	if err := llmjson.Decode(reply, &raw); err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryClassification).
			Context("provider", conf.ProviderGemini).
			Context("reply_length", len(reply)).
			Build()
	}

	items := make([]detection.Item, 0, len(raw))
	for _, it := range raw {
		it = it.Normalize()
		if it.Type == "" {
			continue
		}
		items = append(items, it)
	}

	GetLogger().Debug("image classified",
		logger.Int("items", len(items)),
		logger.Int("dropped", len(raw)-len(items)))
	return items, nil
}
