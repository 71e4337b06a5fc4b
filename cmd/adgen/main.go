// Command adgen runs a single generation batch from the terminal and writes
// the images, plus an optional ZIP, into an output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/prylatief/latiefads/internal/batch"
	"github.com/prylatief/latiefads/internal/domain"
	"github.com/prylatief/latiefads/internal/export"
	"github.com/prylatief/latiefads/internal/genai"
	"github.com/prylatief/latiefads/internal/infra"
	"github.com/prylatief/latiefads/internal/storage"
)

func main() {
	var (
		productFlag  string
		logoFlag     string
		headline     string
		subheadline  string
		price        string
		discount     string
		cta          string
		currencyFlag string
		templateFlag string
		brandColor   string
		watermark    bool
		ratiosFlag   string
		batchSize    int
		outDir       string
		writeZip     bool
	)
	flag.StringVar(&productFlag, "product", "", "path to the product photo (required)")
	flag.StringVar(&logoFlag, "logo", "", "path to the brand logo (optional)")
	flag.StringVar(&headline, "headline", "", "ad headline (required)")
	flag.StringVar(&subheadline, "subheadline", "", "supporting line")
	flag.StringVar(&price, "price", "", "numeric price, formatted with the currency symbol")
	flag.StringVar(&discount, "discount", "", "numeric discount percentage for the badge")
	flag.StringVar(&cta, "cta", "", "call to action text")
	flag.StringVar(&currencyFlag, "currency", "IDR", "price currency (IDR, USD, EUR, GBP)")
	flag.StringVar(&templateFlag, "template", string(domain.TemplateHero), "visual template")
	flag.StringVar(&brandColor, "brand-color", "", "dominant brand color")
	flag.BoolVar(&watermark, "watermark", false, "render the brand name as a corner watermark")
	flag.StringVar(&ratiosFlag, "ratios", "1:1", "comma separated aspect ratios")
	flag.IntVar(&batchSize, "batch", 1, "images per aspect ratio")
	flag.StringVar(&outDir, "out", "out", "output directory")
	flag.BoolVar(&writeZip, "zip", false, "also write a ZIP archive of the batch")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fail("load config: %v", err)
	}
	if cfg.GeminiAPIKey == "" {
		fail("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(productFlag) == "" {
		fail("-product is required")
	}
	if strings.TrimSpace(headline) == "" {
		fail("-headline is required")
	}

	product, err := readImage(productFlag)
	if err != nil {
		fail("read product: %v", err)
	}
	var logo *domain.InlineImage
	if strings.TrimSpace(logoFlag) != "" {
		img, err := readImage(logoFlag)
		if err != nil {
			fail("read logo: %v", err)
		}
		logo = &img
	}

	var ratios []domain.AspectRatio
	for _, token := range strings.Split(ratiosFlag, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		ratio, err := domain.ParseAspectRatio(token)
		if err != nil {
			fail("%v", err)
		}
		ratios = append(ratios, ratio)
	}

	logger := infra.NewLogger("cli").With().Str("cmd", "adgen").Logger()

	client := genai.NewClient(genai.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		ImageModel: cfg.GeminiImageModel,
		TextModel:  cfg.GeminiTextModel,
		Logger:     &logger,
	})
	runner := batch.NewRunner(batch.Options{
		Generator: client,
		Logger:    &logger,
		Pacing:    cfg.GenerationPacing,
	})
	files, err := storage.NewFileStore(outDir)
	if err != nil {
		fail("%v", err)
	}

	req := batch.Request{
		Fields: domain.AdFields{
			Headline:     strings.TrimSpace(headline),
			Subheadline:  strings.TrimSpace(subheadline),
			Price:        strings.TrimSpace(price),
			Discount:     strings.TrimSpace(discount),
			CallToAction: strings.TrimSpace(cta),
			Currency:     domain.ParseCurrency(currencyFlag),
		},
		Template:   domain.Template(strings.TrimSpace(templateFlag)),
		BrandColor: strings.TrimSpace(brandColor),
		Watermark:  watermark,
		BrandName:  cfg.BrandPrefix,
		Ratios:     ratios,
		BatchSize:  batchSize,
		Product:    product,
		Logo:       logo,
	}

	ctx := context.Background()
	results, runErr := runner.Run(ctx, req, batch.Hooks{
		OnProgress: func(p domain.BatchProgress) {
			if p.Total > 0 {
				fmt.Printf("generating image %d of %d\n", p.Done, p.Total)
			}
		},
	})

	// A failed run still yields everything generated before the failure.
	for i, res := range results {
		key, err := files.SaveResult(ctx, cfg.BrandPrefix, i+1, res)
		if err != nil {
			fail("save image: %v", err)
		}
		fmt.Printf("wrote %s\n", key)
	}
	if writeZip && len(results) > 0 {
		archive, err := export.Archive(cfg.BrandPrefix, results)
		if err != nil {
			fail("build archive: %v", err)
		}
		key, err := files.SaveArchive(ctx, cfg.BrandPrefix, archive)
		if err != nil {
			fail("save archive: %v", err)
		}
		fmt.Printf("wrote %s\n", key)
	}
	if runErr != nil {
		fail("batch stopped: %v", runErr)
	}
	fmt.Printf("done, %d images in %s\n", len(results), files.BasePath())
}

func readImage(path string) (domain.InlineImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.InlineImage{}, err
	}
	if len(data) == 0 {
		return domain.InlineImage{}, fmt.Errorf("%s is empty", path)
	}
	return domain.InlineImage{MIMEType: http.DetectContentType(data), Data: data}, nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
