package adprompt

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/prylatief/latiefads/internal/domain"
)

// Spec carries everything the instruction builder needs for one generation
// task. Building is a pure transformation; the product and logo payloads
// travel separately alongside the instruction text.
type Spec struct {
	Template   domain.Template
	Fields     domain.AdFields
	BrandColor string
	Watermark  bool
	BrandName  string
	HasLogo    bool
	Ratio      domain.AspectRatio
}

var groupedPrinter = message.NewPrinter(language.English)

// Build converts a structured ad request into a single natural-language
// instruction for the image model.
func Build(spec Spec) string {
	var lines []string

	lines = append(lines,
		"Create a professional advertisement image featuring the product from the attached photo.",
		"Style: "+styleDescription(spec.Template))

	if headline := strings.TrimSpace(spec.Fields.Headline); headline != "" {
		lines = append(lines, fmt.Sprintf("Display the headline text %q prominently.", headline))
	}
	if sub := strings.TrimSpace(spec.Fields.Subheadline); sub != "" {
		lines = append(lines, fmt.Sprintf("Below it, show the supporting text %q in a smaller size.", sub))
	}
	if price := FormatPrice(spec.Fields.Price, spec.Fields.Currency); price != "" {
		lines = append(lines, fmt.Sprintf("Show the price %s as a clear, eye-catching element.", price))
	}
	if discount := FormatDiscount(spec.Fields.Discount); discount != "" {
		lines = append(lines, fmt.Sprintf("Include a %q badge or sticker.", discount))
	}
	if cta := strings.TrimSpace(spec.Fields.CallToAction); cta != "" {
		lines = append(lines, fmt.Sprintf("Add a call-to-action button or ribbon reading %q.", cta))
	}

	if color := strings.TrimSpace(spec.BrandColor); color != "" {
		lines = append(lines, fmt.Sprintf("Use %s as the dominant brand accent color for text blocks and graphic elements.", color))
	}
	if spec.HasLogo {
		lines = append(lines, "Place the attached brand logo in a corner of the composition, small and subordinate to the product. Never let the logo compete with the product.")
	}
	if spec.Watermark {
		tag := strings.TrimSpace(spec.BrandName)
		if tag == "" {
			tag = "latiefads"
		}
		lines = append(lines, fmt.Sprintf("Embed a subtle %q watermark near the bottom edge.", tag))
	}

	lines = append(lines,
		fmt.Sprintf("The output image aspect ratio must be exactly %s.", spec.Ratio),
		"Keep the product photorealistic and undistorted. Any rendered text must be sharp and correctly spelled.",
		"Return exactly one complete image. Do not return text, code, or a partial render.")

	return strings.Join(lines, "\n")
}

// styleDescription maps each template to its visual direction. The template
// set is closed; unknown values fall back to a generic advertisement style
// rather than failing, since the template is a presentation affordance.
func styleDescription(t domain.Template) string {
	switch t {
	case domain.TemplateHero:
		return "hero shot. The product is the dramatic centerpiece on a premium studio background with strong directional lighting and generous negative space for the copy."
	case domain.TemplatePriceTag:
		return "price-tag promo. Retail promotion look with the price as a large tag or burst, bold saturated colors, and high-energy sale atmosphere."
	case domain.TemplateUGCStyle:
		return "UGC-style photo. Casual, authentic smartphone-photo aesthetic, natural daylight, lifestyle setting, as if shared by a real customer."
	case domain.TemplateMinimalist:
		return "minimalist. Clean single-color background, lots of whitespace, small refined typography, calm premium mood."
	case domain.TemplateBoldTypography:
		return "bold typography. Oversized type dominates the layout, high-contrast color blocking, the product integrated into the letterforms."
	case domain.TemplateBenefitFocused:
		return "benefit-focused. The product shown in use, with short benefit callouts arranged around it and friendly approachable styling."
	default:
		return "standard advertisement. Balanced commercial layout with the product clearly presented and readable copy."
	}
}

// FormatPrice renders the price as <symbol><thousands-grouped integer>, e.g.
// "Rp150,000". An unset or non-numeric price yields the empty string so the
// instruction carries no price clause.
func FormatPrice(price string, currency domain.Currency) string {
	price = strings.TrimSpace(price)
	if price == "" {
		return ""
	}
	n, err := strconv.ParseInt(price, 10, 64)
	if err != nil || n < 0 {
		return ""
	}
	return currency.Symbol() + groupedPrinter.Sprintf("%d", n)
}

// FormatDiscount renders "N% OFF" for a set discount, and the empty string
// when the discount is unset or zero. A missing discount must never surface
// as a "0% OFF" clause.
func FormatDiscount(discount string) string {
	discount = strings.TrimSpace(discount)
	if discount == "" {
		return ""
	}
	n, err := strconv.ParseInt(discount, 10, 64)
	if err != nil || n <= 0 {
		return ""
	}
	return fmt.Sprintf("%d%% OFF", n)
}
