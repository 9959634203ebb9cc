// Package bgremoval cuts products out of their photo background and places
// them centered on a transparent square canvas.
package bgremoval

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/infrastructure/imagecodec"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/logging"
	"github.com/disintegration/imaging"
)

// Source is the provenance name of background-removed images
const Source = "bgremoval"

// Remover runs an external segmentation command (rembg compatible:
// `<command> i <input> <output>`) and recomposes its output.
type Remover struct {
	command    string
	canvasSize int
	padding    float64
	timeout    time.Duration
	lookPath   func(string) (string, error)
}

// NewRemover creates a background removal adapter
func NewRemover(command string, canvasSize int, padding float64, timeout time.Duration) *Remover {
	if canvasSize <= 0 {
		canvasSize = 1000
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Remover{
		command:    command,
		canvasSize: canvasSize,
		padding:    padding,
		timeout:    timeout,
		lookPath:   exec.LookPath,
	}
}

// Available reports whether the segmentation command can be found
func (r *Remover) Available() bool {
	if r.command == "" {
		return false
	}
	_, err := r.lookPath(r.command)
	return err == nil
}

// RemoveBackground returns the product on a transparent square PNG canvas
func (r *Remover) RemoveBackground(ctx context.Context, img *domain.ImageAsset) (asset *domain.ImageAsset, err error) {
	logger := logging.Component(ctx, Source)

	defer func() {
		if rec := recover(); rec != nil {
			asset = nil
			err = domain.NewProviderError(Source, domain.ErrProcessing, fmt.Sprintf("background removal panicked: %v", rec), nil)
		}
	}()

	if img == nil || len(img.Data) == 0 {
		return nil, domain.NewProviderError(Source, domain.ErrProcessing, "no image to process", nil)
	}

	bin, err := r.lookPath(r.command)
	if r.command == "" || err != nil {
		return nil, domain.NewProviderError(Source, domain.ErrUnavailable, "background removal is not installed", err)
	}

	cutout, err := r.segment(ctx, bin, img)
	if err != nil {
		return nil, err
	}

	decoded, err := imaging.Decode(bytes.NewReader(cutout))
	if err != nil {
		return nil, domain.NewProviderError(Source, domain.ErrProcessing, "could not decode segmented image", err)
	}

	composed := Recompose(decoded, r.canvasSize, r.padding)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, composed, imaging.PNG); err != nil {
		return nil, domain.NewProviderError(Source, domain.ErrProcessing, "could not encode result", err)
	}

	asset, err = imagecodec.NewAsset(buf.Bytes(), Source, "", domain.StageFinal)
	if err != nil {
		return nil, domain.NewProviderError(Source, domain.ErrProcessing, "result could not be decoded", err)
	}

	logger.Info("background removed", "canvas", r.canvasSize, "bytes", buf.Len())
	return asset, nil
}

// segment writes the image to a scratch dir, runs the command and reads its PNG output
func (r *Remover) segment(ctx context.Context, bin string, img *domain.ImageAsset) ([]byte, error) {
	dir, err := os.MkdirTemp("", "bgremoval-*")
	if err != nil {
		return nil, domain.NewProviderError(Source, domain.ErrProcessing, "could not create scratch directory", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input"+img.Extension())
	out := filepath.Join(dir, "output.png")
	if err := os.WriteFile(in, img.Data, 0o600); err != nil {
		return nil, domain.NewProviderError(Source, domain.ErrProcessing, "could not write input image", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, "i", in, out)
	cmd.WaitDelay = time.Second
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, domain.NewProviderError(Source, domain.ErrTimeout, "background removal timed out", ctx.Err())
		}
		return nil, domain.NewProviderError(Source, domain.ErrProcessing,
			fmt.Sprintf("background removal failed: %s", bytes.TrimSpace(output)), err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, domain.NewProviderError(Source, domain.ErrProcessing, "background removal produced no output", err)
	}
	return data, nil
}

// Recompose trims transparent borders, scales the product to the padded
// area and centers it on a transparent size x size canvas.
func Recompose(img image.Image, size int, padding float64) *image.NRGBA {
	canvas := imaging.New(size, size, color.NRGBA{})

	bounds := OpaqueBounds(img)
	if bounds.Empty() {
		return canvas
	}

	product := imaging.Crop(img, bounds)
	inner := int(float64(size) * (1 - 2*padding))
	if inner < 1 {
		inner = 1
	}
	if product.Bounds().Dx() >= product.Bounds().Dy() {
		product = imaging.Resize(product, inner, 0, imaging.Lanczos)
	} else {
		product = imaging.Resize(product, 0, inner, imaging.Lanczos)
	}

	return imaging.PasteCenter(canvas, product)
}

// OpaqueBounds returns the smallest rectangle holding every non-transparent pixel
func OpaqueBounds(img image.Image) image.Rectangle {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < minX || maxY < minY {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
