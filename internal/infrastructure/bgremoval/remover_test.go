package bgremoval

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cutoutPNG is a w x h transparent image with an opaque red block at rect
func cutoutPNG(t *testing.T, w, h int, rect image.Rectangle) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func fakeCommand(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-rembg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestRemoveBackground_Success(t *testing.T) {
	command := fakeCommand(t, `cp "$2" "$3"`)
	remover := NewRemover(command, 100, 0.1, 5*time.Second)
	input := &domain.ImageAsset{
		Data:   cutoutPNG(t, 200, 100, image.Rect(50, 25, 150, 75)),
		Format: "png",
	}

	result, err := remover.RemoveBackground(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, domain.StageFinal, result.Stage)
	assert.Equal(t, Source, result.Source)
	assert.Equal(t, "png", result.Format)
	assert.Equal(t, 100, result.Width)
	assert.Equal(t, 100, result.Height)

	decoded, err := png.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)
	_, _, _, centerAlpha := decoded.At(50, 50).RGBA()
	_, _, _, cornerAlpha := decoded.At(2, 2).RGBA()
	assert.NotZero(t, centerAlpha)
	assert.Zero(t, cornerAlpha)
}

func TestRemoveBackground_Unavailable(t *testing.T) {
	remover := NewRemover(filepath.Join(t.TempDir(), "missing-rembg"), 100, 0.1, time.Second)
	assert.False(t, remover.Available())

	result, err := remover.RemoveBackground(context.Background(), &domain.ImageAsset{Data: []byte{1}})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.True(t, domain.IsSkip(err))
}

func TestRemoveBackground_CommandFails(t *testing.T) {
	command := fakeCommand(t, `echo "model download failed" >&2; exit 3`)
	remover := NewRemover(command, 100, 0.1, 5*time.Second)

	_, err := remover.RemoveBackground(context.Background(), &domain.ImageAsset{Data: []byte{1}, Format: "jpeg"})

	assert.ErrorIs(t, err, domain.ErrProcessing)
	assert.Contains(t, domain.Reason(err), "model download failed")
}

func TestRemoveBackground_Timeout(t *testing.T) {
	command := fakeCommand(t, `exec sleep 5`)
	remover := NewRemover(command, 100, 0.1, 100*time.Millisecond)

	_, err := remover.RemoveBackground(context.Background(), &domain.ImageAsset{Data: []byte{1}})

	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestRemoveBackground_GarbageOutput(t *testing.T) {
	command := fakeCommand(t, `echo "not a png" > "$3"`)
	remover := NewRemover(command, 100, 0.1, 5*time.Second)

	_, err := remover.RemoveBackground(context.Background(), &domain.ImageAsset{Data: []byte{1}})

	assert.ErrorIs(t, err, domain.ErrProcessing)
}

func TestOpaqueBounds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	assert.True(t, OpaqueBounds(img).Empty())

	img.SetNRGBA(10, 20, color.NRGBA{A: 255})
	img.SetNRGBA(30, 5, color.NRGBA{A: 10})
	assert.Equal(t, image.Rect(10, 5, 31, 21), OpaqueBounds(img))
}

func TestRecompose_EmptyImage(t *testing.T) {
	canvas := Recompose(image.NewNRGBA(image.Rect(0, 0, 10, 10)), 64, 0.08)

	assert.Equal(t, image.Rect(0, 0, 64, 64), canvas.Bounds())
	assert.True(t, OpaqueBounds(canvas).Empty())
}
