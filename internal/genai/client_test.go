package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prylatief/latiefads/internal/domain"
)

func textResponse(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{"text": text}},
			},
		}},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func imageResponse(mime string, payload []byte) string {
	resp := map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{
					{"text": "here is your image"},
					{"inlineData": map[string]any{
						"mimeType": mime,
						"data":     base64.StdEncoding.EncodeToString(payload),
					}},
				},
			},
		}},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		ImageModel: "image-model",
		TextModel:  "text-model",
		HTTPClient: srv.Client(),
	})
	return client, srv
}

func TestGenerateAdCopySuccess(t *testing.T) {
	var captured geminiGenerateContentRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		if !strings.HasSuffix(r.URL.Path, "/models/text-model:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(textResponse(`{"headline":"Kopi Mantap","subheadline":"Seduh segar setiap pagi","cta":"Pesan Sekarang"}`)))
	})

	copy, err := client.GenerateAdCopy(context.Background(), "kopi susu gula aren", domain.LanguageIndonesian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if copy.Headline != "Kopi Mantap" || copy.CallToAction != "Pesan Sekarang" {
		t.Fatalf("unexpected copy: %+v", copy)
	}

	cfg := captured.GenerationConfig
	if cfg == nil || cfg.ResponseMimeType != "application/json" {
		t.Fatalf("expected JSON response mime type, got %+v", cfg)
	}
	if cfg.ResponseSchema == nil || len(cfg.ResponseSchema.Required) != 3 {
		t.Fatalf("expected schema with three required fields, got %+v", cfg.ResponseSchema)
	}
}

func TestGenerateAdCopyStripsCodeFence(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(textResponse("```json\n{\"headline\":\"Go Fresh\",\"subheadline\":\"Daily deals\",\"cta\":\"Shop Now\"}\n```")))
	})
	copy, err := client.GenerateAdCopy(context.Background(), "greengrocer", domain.LanguageEnglish)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if copy.Subheadline != "Daily deals" {
		t.Fatalf("unexpected copy: %+v", copy)
	}
}

func TestGenerateAdCopyFailsClosed(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", textResponse("not json at all")},
		{"missing field", textResponse(`{"headline":"Only One","subheadline":"","cta":""}`)},
		{"empty candidates", `{"candidates":[]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})
			copy, err := client.GenerateAdCopy(context.Background(), "anything", domain.LanguageEnglish)
			if err == nil {
				t.Fatal("expected an error")
			}
			if copy != (domain.AdCopy{}) {
				t.Fatalf("expected zero copy on failure, got %+v", copy)
			}
		})
	}
}

func TestGenerateAdCopyRejectsEmptyDescription(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent")
	})
	_, err := client.GenerateAdCopy(context.Background(), "   ", domain.LanguageEnglish)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestGenerateAdImageReturnsFirstImagePart(t *testing.T) {
	payload := []byte("fake-png-bytes")
	var captured geminiGenerateContentRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/image-model:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(imageResponse("image/png", payload)))
	})

	product := domain.InlineImage{MIMEType: "image/jpeg", Data: []byte("product")}
	logo := domain.InlineImage{MIMEType: "image/png", Data: []byte("logo")}
	img, err := client.GenerateAdImage(context.Background(), product, &logo, "make an ad")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.MIMEType != "image/png" || string(img.Data) != string(payload) {
		t.Fatalf("unexpected image: %s %d bytes", img.MIMEType, len(img.Data))
	}

	parts := captured.Contents[0].Parts
	if len(parts) != 3 {
		t.Fatalf("expected product, instruction, and logo parts, got %d", len(parts))
	}
	if parts[0].InlineData == nil || parts[0].InlineData.MimeType != "image/jpeg" {
		t.Fatalf("expected the product photo first, got %+v", parts[0])
	}
	if parts[1].Text != "make an ad" {
		t.Fatalf("expected the instruction second, got %+v", parts[1])
	}
	if parts[2].InlineData == nil {
		t.Fatalf("expected the logo last, got %+v", parts[2])
	}
	if captured.GenerationConfig == nil || len(captured.GenerationConfig.ResponseModalities) != 2 {
		t.Fatalf("expected image+text modalities, got %+v", captured.GenerationConfig)
	}
}

func TestGenerateAdImageNoImagePart(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(textResponse("sorry, I can only describe the image")))
	})
	product := domain.InlineImage{MIMEType: "image/png", Data: []byte("product")}
	_, err := client.GenerateAdImage(context.Background(), product, nil, "make an ad")
	if !errors.Is(err, domain.ErrNoImageReturned) {
		t.Fatalf("expected ErrNoImageReturned, got %v", err)
	}
}

func TestGenerateAdImageQuotaExhausted(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"Quota exceeded for requests"}}`))
	})
	product := domain.InlineImage{MIMEType: "image/png", Data: []byte("product")}
	_, err := client.GenerateAdImage(context.Background(), product, nil, "make an ad")
	if !errors.Is(err, domain.ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
}

func TestGenerateAdImageServerErrorPassesThrough(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":500,"status":"INTERNAL","message":"model crashed"}}`))
	})
	product := domain.InlineImage{MIMEType: "image/png", Data: []byte("product")}
	_, err := client.GenerateAdImage(context.Background(), product, nil, "make an ad")
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, domain.ErrQuotaExhausted) {
		t.Fatalf("a plain server error must not be classified as quota: %v", err)
	}
	if !strings.Contains(err.Error(), "model crashed") {
		t.Fatalf("expected upstream message to surface, got %q", err.Error())
	}
}
