package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/raushankrgupta/wardrobe-stylist/recommend"
	"google.golang.org/api/option"
)

// ErrStylistDisabled is returned when no Gemini key is configured
var ErrStylistDisabled = errors.New("GEMINI_API_KEY is not set")

// GeminiStylist writes style notes for an outfit using Gemini
type GeminiStylist struct {
	apiKey string
	model  string
}

// NewGeminiStylist creates a stylist for the given model
func NewGeminiStylist(apiKey, model string) *GeminiStylist {
	return &GeminiStylist{apiKey: apiKey, model: model}
}

// StyleNotes asks Gemini for two or three sentences of styling advice
func (g *GeminiStylist) StyleNotes(ctx context.Context, req recommend.StylistRequest) (string, error) {
	if g == nil || g.apiKey == "" {
		return "", ErrStylistDisabled
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetTemperature(0.4)

	resp, err := model.GenerateContent(ctx, genai.Text(stylistPrompt(req)))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response format (no text parts)")
	}
	return strings.TrimSpace(sb.String()), nil
}

func stylistPrompt(req recommend.StylistRequest) string {
	var sb strings.Builder
	sb.WriteString("You are a personal stylist. Write two or three short sentences of styling advice for this outfit.\n")
	sb.WriteString("Do not list the items again and do not use markdown.\n\n")
	fmt.Fprintf(&sb, "Outfit: %s\n", req.Description)
	fmt.Fprintf(&sb, "Items: %s\n", strings.Join(req.Items, ", "))
	if req.Occasion != "" {
		fmt.Fprintf(&sb, "Occasion: %s\n", req.Occasion)
	}
	if req.PreferredStyle != "" {
		fmt.Fprintf(&sb, "Preferred style: %s\n", req.PreferredStyle)
	}
	if req.BodyType != "" {
		fmt.Fprintf(&sb, "Body type: %s\n", req.BodyType)
	}
	if req.SkinTone != "" {
		fmt.Fprintf(&sb, "Skin tone: %s\n", req.SkinTone)
	}
	if req.Notes != "" {
		fmt.Fprintf(&sb, "Current notes: %s\n", req.Notes)
	}
	return sb.String()
}
