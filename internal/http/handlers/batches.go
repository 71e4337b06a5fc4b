package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/prylatief/latiefads/internal/batch"
	"github.com/prylatief/latiefads/internal/domain"
	"github.com/prylatief/latiefads/internal/export"
	"github.com/prylatief/latiefads/internal/store"
)

const maxMultipartMemory = 32 << 20

type batchResponse struct {
	ID         string               `json:"id"`
	State      string               `json:"state"`
	Progress   domain.BatchProgress `json:"progress"`
	Results    int                  `json:"results"`
	Error      string               `json:"error,omitempty"`
	TotalTasks int                  `json:"total_tasks,omitempty"`
}

// BatchCreate validates the multipart request, reads the product and logo
// images exactly once, registers a batch, and starts the sequential run in
// the background. Validation failures never start a batch.
func (a *App) BatchCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}

	product, err := a.readUpload(r, "product", a.Config.MaxProductBytes)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "product image is required")
		return
	}

	// A missing logo part is fine; a present but unreadable one is not, the
	// batch must not run without an image the caller meant to include.
	var logo *domain.InlineImage
	if l, err := a.readUpload(r, "logo", a.Config.MaxLogoBytes); err == nil {
		logo = &l
	} else if !errors.Is(err, http.ErrMissingFile) {
		a.error(w, http.StatusBadRequest, "bad_request", "logo upload could not be read")
		return
	}

	fields := domain.AdFields{
		Headline:     strings.TrimSpace(r.FormValue("headline")),
		Subheadline:  strings.TrimSpace(r.FormValue("subheadline")),
		Price:        strings.TrimSpace(r.FormValue("price")),
		Discount:     strings.TrimSpace(r.FormValue("discount")),
		CallToAction: strings.TrimSpace(r.FormValue("cta")),
		Currency:     domain.ParseCurrency(r.FormValue("currency")),
	}
	if fields.Headline == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "headline is required")
		return
	}

	ratios, err := parseRatios(r.Form["ratios"])
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	batchSize := 1
	if raw := strings.TrimSpace(r.FormValue("batch_size")); raw != "" {
		batchSize, err = strconv.Atoi(raw)
		if err != nil || batchSize < 1 {
			a.error(w, http.StatusBadRequest, "bad_request", "batch size must be at least 1")
			return
		}
	}

	req := batch.Request{
		Fields:     fields,
		Template:   domain.Template(strings.TrimSpace(r.FormValue("template"))),
		BrandColor: strings.TrimSpace(r.FormValue("brand_color")),
		Watermark:  r.FormValue("watermark") == "true",
		BrandName:  a.Config.BrandPrefix,
		Ratios:     ratios,
		BatchSize:  batchSize,
		Product:    product,
		Logo:       logo,
	}

	b := a.Store.Create()
	go a.runBatch(b.ID, req)

	a.json(w, http.StatusAccepted, batchResponse{
		ID:         b.ID,
		State:      string(b.State),
		TotalTasks: batchSize * len(ratios),
	})
}

// runBatch owns the whole batch lifecycle. Task failures are translated to
// user-facing text here; the loop has already stopped dispatching when the
// error surfaces, and results produced before the failure stay in the store.
func (a *App) runBatch(id string, req batch.Request) {
	_, err := a.Runner.Run(context.Background(), req, batch.Hooks{
		OnProgress: func(p domain.BatchProgress) { a.Store.SetProgress(id, p) },
		OnResult:   func(res domain.GenerationResult) { a.Store.AppendResult(id, res) },
	})
	if err != nil {
		a.Logger.Error().Err(err).Str("batch_id", id).Msg("handlers: batch failed")
		a.Store.Fail(id, err.Error())
		return
	}
	a.Store.Complete(id)
}

func (a *App) BatchStatus(w http.ResponseWriter, r *http.Request) {
	b, err := a.Store.Get(chi.URLParam(r, "batch_id"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "batch not found")
		return
	}
	a.json(w, http.StatusOK, batchResponse{
		ID:       b.ID,
		State:    string(b.State),
		Progress: b.Progress,
		Results:  len(b.Results),
		Error:    b.Error,
	})
}

// BatchResults lists the produced images in dispatch order, each with a data
// URL ready for inline preview.
func (a *App) BatchResults(w http.ResponseWriter, r *http.Request) {
	b, err := a.Store.Get(chi.URLParam(r, "batch_id"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "batch not found")
		return
	}
	items := make([]map[string]any, 0, len(b.Results))
	for _, res := range b.Results {
		items = append(items, map[string]any{
			"id":           res.ID,
			"aspect_ratio": res.Ratio,
			"mime_type":    res.Image.MIMEType,
			"bytes":        len(res.Image.Data),
			"data_url":     dataURL(res.Image),
			"filename":     export.DownloadName(a.Config.BrandPrefix, res),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) ResultDownload(w http.ResponseWriter, r *http.Request) {
	res, err := a.Store.Result(chi.URLParam(r, "batch_id"), chi.URLParam(r, "result_id"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "result not found")
		return
	}
	w.Header().Set("Content-Type", res.Image.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DownloadName(a.Config.BrandPrefix, res)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Image.Data)
}

// BatchArchive packages every result of a finished batch into one ZIP. A
// failed batch still archives its partial results.
func (a *App) BatchArchive(w http.ResponseWriter, r *http.Request) {
	b, err := a.Store.Get(chi.URLParam(r, "batch_id"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "batch not found")
		return
	}
	if b.State == store.StateRunning {
		a.error(w, http.StatusConflict, "batch_running", domain.ErrBatchRunning.Error())
		return
	}
	if len(b.Results) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "batch produced no images")
		return
	}
	archive, err := export.Archive(a.Config.BrandPrefix, b.Results)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.ArchiveName(a.Config.BrandPrefix)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// readUpload reads one uploaded image fully into memory. The size limits are
// a documented affordance, not hard validation: oversized files are logged
// and accepted.
func (a *App) readUpload(r *http.Request, field string, softLimit int64) (domain.InlineImage, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return domain.InlineImage{}, err
	}
	defer file.Close()

	if header.Size > softLimit {
		a.Logger.Warn().
			Str("field", field).
			Int64("bytes", header.Size).
			Int64("soft_limit", softLimit).
			Msg("handlers: upload exceeds soft size limit")
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return domain.InlineImage{}, fmt.Errorf("read %s upload: %w", field, err)
	}
	if len(data) == 0 {
		return domain.InlineImage{}, errors.New("empty upload")
	}

	mime := detectImageMIME(header, data)
	if mime != "image/png" && mime != "image/jpeg" {
		a.Logger.Warn().Str("field", field).Str("mime", mime).Msg("handlers: unexpected upload type")
	}
	return domain.InlineImage{MIMEType: mime, Data: data}, nil
}

func detectImageMIME(header *multipart.FileHeader, data []byte) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return http.DetectContentType(data)
}

// parseRatios accepts repeated form fields and comma-separated values.
func parseRatios(raw []string) ([]domain.AspectRatio, error) {
	var out []domain.AspectRatio
	for _, entry := range raw {
		for _, token := range strings.Split(entry, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			ratio, err := domain.ParseAspectRatio(token)
			if err != nil {
				return nil, err
			}
			out = append(out, ratio)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: select at least one aspect ratio", domain.ErrInvalidRequest)
	}
	return out, nil
}

func dataURL(img domain.InlineImage) string {
	return fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))
}
