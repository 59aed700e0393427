package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raushankrgupta/wardrobe-stylist/recommend"
)

func TestGeminiStylist_DisabledWithoutKey(t *testing.T) {
	_, err := NewGeminiStylist("", "gemini-1.5-flash").StyleNotes(context.Background(), recommend.StylistRequest{})
	require.ErrorIs(t, err, ErrStylistDisabled)

	var nilStylist *GeminiStylist
	_, err = nilStylist.StyleNotes(context.Background(), recommend.StylistRequest{})
	assert.ErrorIs(t, err, ErrStylistDisabled)
}

func TestStylistPrompt(t *testing.T) {
	prompt := stylistPrompt(recommend.StylistRequest{
		Description:    "Black shirt with grey trousers",
		Items:          []string{"Black Shirt", "Grey Trousers"},
		Occasion:       "Work",
		PreferredStyle: "Business",
	})

	assert.Contains(t, prompt, "Outfit: Black shirt with grey trousers\n")
	assert.Contains(t, prompt, "Items: Black Shirt, Grey Trousers\n")
	assert.Contains(t, prompt, "Occasion: Work\n")
	assert.Contains(t, prompt, "Preferred style: Business\n")
	assert.NotContains(t, prompt, "Body type")
	assert.NotContains(t, prompt, "Skin tone")
}
