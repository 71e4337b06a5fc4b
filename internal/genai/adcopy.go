package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/prylatief/latiefads/internal/adprompt"
	"github.com/prylatief/latiefads/internal/domain"
)

// GenerateAdCopy asks the text model for headline, subheadline, and
// call-to-action copy for the described product. Exactly one outbound call is
// made; there is no internal retry. On any failure the zero AdCopy is
// returned together with an error, never a corrupted partial — callers keep
// their existing fields intact.
func (c *Client) GenerateAdCopy(ctx context.Context, description string, lang domain.Language) (domain.AdCopy, error) {
	if strings.TrimSpace(description) == "" {
		return domain.AdCopy{}, fmt.Errorf("ad copy: %w: description is required", domain.ErrInvalidRequest)
	}

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: adprompt.BuildCopyPrompt(description, lang)}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0.7,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
			ResponseSchema:   adCopySchema(),
		},
	}

	var resp geminiGenerateContentResponse
	if err := c.invoke(ctx, c.textModel, payload, &resp); err != nil {
		return domain.AdCopy{}, fmt.Errorf("ad copy: %w", err)
	}

	text := firstText(resp)
	if text == "" {
		return domain.AdCopy{}, errors.New("ad copy: empty model response")
	}

	var out domain.AdCopy
	if err := json.Unmarshal([]byte(extractJSONFragment(text)), &out); err != nil {
		return domain.AdCopy{}, fmt.Errorf("ad copy: malformed response: %w", err)
	}
	if strings.TrimSpace(out.Headline) == "" ||
		strings.TrimSpace(out.Subheadline) == "" ||
		strings.TrimSpace(out.CallToAction) == "" {
		return domain.AdCopy{}, errors.New("ad copy: response missing required field")
	}

	c.logger.Debug().Str("model", c.textModel).Msg("genai: generated ad copy")
	return out, nil
}

// adCopySchema constrains the response to a JSON object with exactly the
// three required copy fields.
func adCopySchema() *geminiSchema {
	return &geminiSchema{
		Type: "OBJECT",
		Properties: map[string]geminiSchema{
			"headline":    {Type: "STRING"},
			"subheadline": {Type: "STRING"},
			"cta":         {Type: "STRING"},
		},
		Required: []string{"headline", "subheadline", "cta"},
	}
}

// extractJSONFragment strips code fences and surrounding prose so a JSON
// object embedded in a chatty response still parses.
func extractJSONFragment(raw string) string {
	text := trimCodeFence(strings.TrimSpace(raw))
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
