// Package imagecodec inspects and builds in-memory image assets.
package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	_ "golang.org/x/image/webp"
)

// Inspect decodes only the header of data and reports its format and size.
// Decoder panics on hostile input are reported as processing errors.
func Inspect(data []byte) (format string, width, height int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: decoder panic: %v", domain.ErrProcessing, r)
		}
	}()

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %v", domain.ErrProcessing, err)
	}
	return format, cfg.Width, cfg.Height, nil
}

// ContentType returns the MIME type for a decoder format name.
func ContentType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// NewAsset inspects data and wraps it as an ImageAsset for the given stage.
func NewAsset(data []byte, source, sourceURL string, stage domain.ImageStage) (*domain.ImageAsset, error) {
	format, width, height, err := Inspect(data)
	if err != nil {
		return nil, err
	}
	return &domain.ImageAsset{
		Data:        data,
		Format:      format,
		ContentType: ContentType(format),
		Width:       width,
		Height:      height,
		Source:      source,
		SourceURL:   sourceURL,
		Quality:     domain.QualityForWidth(width),
		Stage:       stage,
	}, nil
}
