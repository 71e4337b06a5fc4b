package adprompt

import (
	"fmt"
	"strings"

	"github.com/prylatief/latiefads/internal/domain"
)

// BuildCopyPrompt asks the text model for short ad copy for the described
// product. The response format itself is constrained by the request schema,
// not by this prompt, so the text only has to set tone and language.
func BuildCopyPrompt(description string, lang domain.Language) string {
	description = strings.TrimSpace(description)

	langLine := "Write all copy in English."
	if lang == domain.LanguageIndonesian {
		langLine = "Tulis semua teks dalam bahasa Indonesia yang natural dan persuasif."
	}

	var b strings.Builder
	b.WriteString("You are an advertising copywriter for small businesses. ")
	fmt.Fprintf(&b, "Product or service: %q. ", description)
	b.WriteString("Produce a short punchy headline (max 6 words), a supporting subheadline (max 12 words), and a call-to-action (max 4 words). ")
	b.WriteString(langLine)
	return b.String()
}
