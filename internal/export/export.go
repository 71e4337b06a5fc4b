// Package export names and packages generated ad images for download.
package export

import (
	"fmt"

	"github.com/prylatief/latiefads/internal/domain"
	"github.com/prylatief/latiefads/pkg/zip"
)

// EntryName builds the archive filename for the seq-th result (1-indexed):
// <brand-prefix>-<ratio with ":" as "x">-<seq>.png. The global sequence
// number keeps names collision-free even when a ratio repeats.
func EntryName(prefix string, ratio domain.AspectRatio, seq int) string {
	return fmt.Sprintf("%s-%s-%d.png", prefix, ratio.FileToken(), seq)
}

// DownloadName builds the single-image filename:
// <brand-prefix>-<ratio>-<result-id>.png.
func DownloadName(prefix string, r domain.GenerationResult) string {
	return fmt.Sprintf("%s-%s-%s.png", prefix, r.Ratio, r.ID)
}

// ArchiveName names the ZIP produced for a whole batch.
func ArchiveName(prefix string) string {
	return prefix + "-ads.zip"
}

// Archive packs every result into a ZIP, one entry per image in result order.
func Archive(prefix string, results []domain.GenerationResult) ([]byte, error) {
	assets := make([]zip.Asset, 0, len(results))
	for i, r := range results {
		assets = append(assets, zip.Asset{
			Filename: EntryName(prefix, r.Ratio, i+1),
			MIME:     r.Image.MIMEType,
			Data:     r.Image.Data,
		})
	}
	return zip.ArchiveAssets(assets)
}
