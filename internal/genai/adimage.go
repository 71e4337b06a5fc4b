package genai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/prylatief/latiefads/internal/domain"
)

// GenerateAdImage sends the product photo, the built instruction, and an
// optional logo to the image model and returns the first image payload found
// in the response. A response with no image part is a distinct failure
// (domain.ErrNoImageReturned) from a transport-level error.
func (c *Client) GenerateAdImage(ctx context.Context, product domain.InlineImage, logo *domain.InlineImage, instruction string) (domain.InlineImage, error) {
	if product.IsZero() {
		return domain.InlineImage{}, fmt.Errorf("ad image: %w: product image is required", domain.ErrInvalidRequest)
	}

	parts := []geminiPart{
		{InlineData: &geminiInlineData{
			MimeType: firstNonEmpty(product.MIMEType, "image/png"),
			Data:     base64.StdEncoding.EncodeToString(product.Data),
		}},
		{Text: instruction},
	}
	if logo != nil && !logo.IsZero() {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: firstNonEmpty(logo.MIMEType, "image/png"),
			Data:     base64.StdEncoding.EncodeToString(logo.Data),
		}})
	}

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	var resp geminiGenerateContentResponse
	if err := c.invoke(ctx, c.imageModel, payload, &resp); err != nil {
		return domain.InlineImage{}, fmt.Errorf("ad image: %w", ClassifyGenerationError(err))
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return domain.InlineImage{}, fmt.Errorf("ad image: decode inline data: %w", err)
			}
			c.logger.Debug().
				Str("model", c.imageModel).
				Int("bytes", len(data)).
				Msg("genai: generated ad image")
			return domain.InlineImage{
				MIMEType: firstNonEmpty(part.InlineData.MimeType, "image/png"),
				Data:     data,
			}, nil
		}
	}

	return domain.InlineImage{}, domain.ErrNoImageReturned
}
