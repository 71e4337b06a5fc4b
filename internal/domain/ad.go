package domain

import (
	"fmt"
	"strings"
)

// Currency enumerates the supported price currencies for ad copy.
type Currency string

const (
	CurrencyIDR Currency = "IDR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// Symbol returns the display symbol placed directly before the grouped amount.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyUSD:
		return "$"
	case CurrencyEUR:
		return "€"
	case CurrencyGBP:
		return "£"
	default:
		return "Rp"
	}
}

// ParseCurrency normalizes a currency code, falling back to IDR for anything
// outside the supported set.
func ParseCurrency(raw string) Currency {
	switch Currency(strings.ToUpper(strings.TrimSpace(raw))) {
	case CurrencyUSD:
		return CurrencyUSD
	case CurrencyEUR:
		return CurrencyEUR
	case CurrencyGBP:
		return CurrencyGBP
	default:
		return CurrencyIDR
	}
}

// Template names a fixed visual/compositional ad style. The set is closed:
// adding a template means adding a case to the instruction builder.
type Template string

const (
	TemplateHero           Template = "hero"
	TemplatePriceTag       Template = "price_tag"
	TemplateUGCStyle       Template = "ugc"
	TemplateMinimalist     Template = "minimalist"
	TemplateBoldTypography Template = "bold_typography"
	TemplateBenefitFocused Template = "benefit"
)

// Templates lists every supported template in presentation order.
func Templates() []Template {
	return []Template{
		TemplateHero,
		TemplatePriceTag,
		TemplateUGCStyle,
		TemplateMinimalist,
		TemplateBoldTypography,
		TemplateBenefitFocused,
	}
}

// AspectRatio is the target output ratio for a single generated image.
type AspectRatio string

const (
	RatioSquare    AspectRatio = "1:1"
	RatioPortrait  AspectRatio = "4:5"
	RatioStory     AspectRatio = "9:16"
	RatioLandscape AspectRatio = "16:9"
)

// ParseAspectRatio validates raw input against the closed ratio set.
func ParseAspectRatio(raw string) (AspectRatio, error) {
	switch AspectRatio(strings.TrimSpace(raw)) {
	case RatioSquare:
		return RatioSquare, nil
	case RatioPortrait:
		return RatioPortrait, nil
	case RatioStory:
		return RatioStory, nil
	case RatioLandscape:
		return RatioLandscape, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAspectRatio, raw)
	}
}

// FileToken renders the ratio in a filename-safe form, e.g. "1:1" -> "1x1".
func (r AspectRatio) FileToken() string {
	return strings.ReplaceAll(string(r), ":", "x")
}

// Language selects the output language for generated ad copy.
type Language string

const (
	LanguageIndonesian Language = "id"
	LanguageEnglish    Language = "en"
)

// ParseLanguage normalizes a locale tag into the two-valued language set.
func ParseLanguage(raw string) Language {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "id") {
		return LanguageIndonesian
	}
	return LanguageEnglish
}

// AdFields is the structured ad copy entered (or generated) for one session.
// Price and Discount are kept as raw numeric strings; empty means unset.
type AdFields struct {
	Headline     string   `json:"headline"`
	Subheadline  string   `json:"subheadline"`
	Price        string   `json:"price"`
	Discount     string   `json:"discount"`
	CallToAction string   `json:"cta"`
	Currency     Currency `json:"currency"`
}

// AdCopy is the structured result of an ad-copy generation call. All three
// fields are required in the upstream response schema.
type AdCopy struct {
	Headline     string `json:"headline"`
	Subheadline  string `json:"subheadline"`
	CallToAction string `json:"cta"`
}

// InlineImage is an in-memory image payload. Immutable once constructed; a
// batch reads the product and logo exactly once and shares the bytes across
// every task.
type InlineImage struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// IsZero reports whether the image carries no payload.
func (i InlineImage) IsZero() bool {
	return len(i.Data) == 0
}

// GenerationResult is one produced ad image. Results are appended in dispatch
// order, which equals completion order because dispatch is sequential.
type GenerationResult struct {
	ID    string      `json:"id"`
	Image InlineImage `json:"image"`
	Ratio AspectRatio `json:"aspect_ratio"`
}

// BatchProgress is (tasks dispatched so far, total tasks). It is monotonically
// non-decreasing while a batch runs and resets to zero when no batch is in
// flight.
type BatchProgress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}
