package export

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func columnIndex(t *testing.T, header string) int {
	t.Helper()
	for i, h := range Headers() {
		if h == header {
			return i
		}
	}
	t.Fatalf("no column %q", header)
	return -1
}

func TestBuildSpreadsheet_RoundTrip(t *testing.T) {
	records := []*domain.ProductRecord{
		{
			Barcode: "3017620422003",
			ProductFields: domain.ProductFields{
				Name:        "Nutella",
				Brand:       "Ferrero",
				Ingredients: "Sugar,\npalm oil",
				Allergens:   []string{"milk", "nuts"},
				Specs:       map[string]string{"Quantity": "400 g", "Labels": "Vegetarian"},
			},
			Found:    true,
			Sources:  []string{domain.SourceOpenFoodFacts},
			Attempts: 1,
		},
		{
			Barcode:  "04963406",
			Found:    false,
			Attempts: 2,
			Error:    "product not found",
		},
	}

	data, err := BuildSpreadsheet(records)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ProductsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Headers(), rows[0])

	nutella := rows[1]
	assert.Equal(t, "3017620422003", nutella[columnIndex(t, "Barcode")])
	assert.Equal(t, "Nutella", nutella[columnIndex(t, "Name")])
	assert.Equal(t, "Sugar, palm oil", nutella[columnIndex(t, "Ingredients")])
	assert.Equal(t, "milk, nuts", nutella[columnIndex(t, "Allergens")])
	assert.Equal(t, domain.NoneValue, nutella[columnIndex(t, "Additives")])
	assert.Equal(t, domain.NotAvailable, nutella[columnIndex(t, "Description")])
	assert.Equal(t, "Yes", nutella[columnIndex(t, "Found")])
	require.Len(t, nutella, len(Headers()), "every column is filled")
	assert.Equal(t, domain.NotAvailable, nutella[columnIndex(t, "Error")])

	missing := rows[2]
	assert.Equal(t, "No", missing[columnIndex(t, "Found")])
	assert.Equal(t, domain.NotAvailable, missing[columnIndex(t, "Name")])
	assert.Equal(t, domain.NoneValue, missing[columnIndex(t, "Allergens")])
	assert.Equal(t, "2", missing[columnIndex(t, "Attempts")])
	assert.Equal(t, "product not found", missing[columnIndex(t, "Error")])

	specs, err := f.GetRows(SpecsSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Barcode", "Product", "Specification", "Value"},
		{"3017620422003", "Nutella", "Labels", "Vegetarian"},
		{"3017620422003", "Nutella", "Quantity", "400 g"},
	}, specs)
}

func TestBuildSpreadsheet_HeaderIsBold(t *testing.T) {
	data, err := BuildSpreadsheet(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	styleID, err := f.GetCellStyle(ProductsSheet, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Nutella 400g", "Nutella 400g"},
		{"illegal characters", `Cola: "Zero"/Lime <12|oz>?*`, "Cola ZeroLime 12oz"},
		{"control characters", "Milk\tWhole\n", "MilkWhole"},
		{"only illegal", `<>:"/\|?*`, PlaceholderFilename},
		{"empty", "", PlaceholderFilename},
		{"dots only", "...", PlaceholderFilename},
		{"truncated", strings.Repeat("a", 60), strings.Repeat("a", 50)},
		{"multibyte truncated by character", strings.Repeat("é", 55), strings.Repeat("é", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.input))
		})
	}
}

func TestImageFilename(t *testing.T) {
	png := &domain.ImageAsset{Format: "png"}

	named := &domain.ProductRecord{Barcode: "123", ProductFields: domain.ProductFields{Name: "Choco/Bar"}}
	assert.Equal(t, "ChocoBar.png", ImageFilename(named, png))

	unnamed := &domain.ProductRecord{Barcode: "04963406", ProductFields: domain.ProductFields{Name: domain.NotAvailable}}
	assert.Equal(t, "04963406.jpg", ImageFilename(unnamed, &domain.ImageAsset{Format: "jpeg"}))
}

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		_, dup := files[f.Name]
		require.False(t, dup, "duplicate entry %s", f.Name)
		files[f.Name] = string(content)
	}
	return files
}

func TestBuildArchive(t *testing.T) {
	images := []NamedImage{
		{Name: "Cola.png", Image: &domain.ImageAsset{Data: []byte("first cola")}},
		{Name: "Chips.jpg", Image: &domain.ImageAsset{Data: []byte("chips")}},
		{Name: "Cola.png", Image: &domain.ImageAsset{Data: []byte("second cola")}},
		{Name: "Empty.png", Image: &domain.ImageAsset{}},
		{Name: "Nil.png"},
	}

	data, err := BuildArchive([]byte("xlsx bytes"), images)
	require.NoError(t, err)

	files := readArchive(t, data)
	assert.Equal(t, map[string]string{
		SpreadsheetName:    "xlsx bytes",
		"images/Cola.png":  "second cola",
		"images/Chips.jpg": "chips",
	}, files)
}
