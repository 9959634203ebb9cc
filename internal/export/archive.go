package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
)

// ImagesDir is the archive folder holding product images
const ImagesDir = "images"

// SpreadsheetName is the name of the spreadsheet inside an archive
const SpreadsheetName = "products.xlsx"

// PlaceholderFilename replaces names that sanitize to nothing
const PlaceholderFilename = "product"

// MaxFilenameLength caps sanitized names, counted in characters
const MaxFilenameLength = 50

// NamedImage is an image with the filename it gets inside an archive
type NamedImage struct {
	Name  string
	Image *domain.ImageAsset
}

// SanitizeFilename strips characters that are illegal in filenames, truncates
// to MaxFilenameLength characters and substitutes the placeholder when empty.
func SanitizeFilename(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if r == utf8.RuneError || unicode.IsControl(r) || strings.ContainsRune(`<>:"/\|?*`, r) {
			continue
		}
		sb.WriteRune(r)
	}
	cleaned := strings.Trim(strings.TrimSpace(sb.String()), ".")
	cleaned = strings.TrimSpace(cleaned)

	if utf8.RuneCountInString(cleaned) > MaxFilenameLength {
		cleaned = strings.TrimSpace(string([]rune(cleaned)[:MaxFilenameLength]))
	}
	if cleaned == "" {
		return PlaceholderFilename
	}
	return cleaned
}

// ImageFilename names a record's image after its product, falling back to the barcode
func ImageFilename(r *domain.ProductRecord, img *domain.ImageAsset) string {
	base := r.Name
	if domain.IsPlaceholder(base) {
		base = r.Barcode
	}
	return SanitizeFilename(base) + img.Extension()
}

// BuildArchive packages the spreadsheet at the archive root and every image
// under ImagesDir. Images sharing a name are not deduplicated: the last one wins.
func BuildArchive(spreadsheet []byte, images []NamedImage) ([]byte, error) {
	var order []string
	contents := make(map[string][]byte)
	for _, img := range images {
		if img.Image == nil || len(img.Image.Data) == 0 {
			continue
		}
		name := path.Join(ImagesDir, img.Name)
		if _, exists := contents[name]; !exists {
			order = append(order, name)
		}
		contents[name] = img.Image.Data
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := time.Now()

	if err := writeEntry(zw, SpreadsheetName, spreadsheet, modified); err != nil {
		return nil, err
	}
	for _, name := range order {
		if err := writeEntry(zw, name, contents[name], modified); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

func writeEntry(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
