package narrative

import (
	"context"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/gemini"
)

// Gemini generates narratives with a Gemini text model.
type Gemini struct {
	client *gemini.Client
}

// NewGemini wraps a Gemini client.
func NewGemini(client *gemini.Client) *Gemini {
	return &Gemini{client: client}
}

func (g *Gemini) Provider() string { return conf.ProviderGemini }

// Generate asks for a JSON reply to prompt.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := g.client.GenerateContent(ctx, gemini.GenerateOptions{JSONResponse: true}, gemini.TextPart(prompt))
	if err != nil {
		return "", wrap(err, conf.ProviderGemini)
	}
	return text, nil
}
