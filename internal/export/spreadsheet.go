// Package export serializes product records into spreadsheets and archives.
package export

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names
const (
	ProductsSheet = "Products"
	SpecsSheet    = "Specifications"
)

// SpreadsheetContentType is the MIME type of the generated workbook
const SpreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const maxColumnWidth = 80

// Column is one fixed spreadsheet column
type Column struct {
	Header string
	Value  func(r *domain.ProductRecord) string
}

// Columns is the fixed, ordered column list of the products sheet
var Columns = []Column{
	{"Barcode", func(r *domain.ProductRecord) string { return r.Barcode }},
	{"Found", func(r *domain.ProductRecord) string { return yesNo(r.Found) }},
	{"Name", func(r *domain.ProductRecord) string { return text(r.Name) }},
	{"Brand", func(r *domain.ProductRecord) string { return text(r.Brand) }},
	{"Description", func(r *domain.ProductRecord) string { return text(r.Description) }},
	{"Category", func(r *domain.ProductRecord) string { return text(r.Category) }},
	{"Category Path", func(r *domain.ProductRecord) string { return text(r.CategoryPath) }},
	{"Department", func(r *domain.ProductRecord) string { return text(r.Department) }},
	{"Product Type", func(r *domain.ProductRecord) string { return text(r.ProductType) }},
	{"Ingredients", func(r *domain.ProductRecord) string { return text(r.Ingredients) }},
	{"Allergens", func(r *domain.ProductRecord) string { return list(r.Allergens) }},
	{"Additives", func(r *domain.ProductRecord) string { return list(r.Additives) }},
	{"Nutrition Grade", func(r *domain.ProductRecord) string { return text(r.NutritionGrade) }},
	{"Organic", func(r *domain.ProductRecord) string { return text(r.Organic) }},
	{"Non-GMO", func(r *domain.ProductRecord) string { return text(r.NonGMO) }},
	{"Height", func(r *domain.ProductRecord) string { return text(r.Dimensions.Height) }},
	{"Width", func(r *domain.ProductRecord) string { return text(r.Dimensions.Width) }},
	{"Length", func(r *domain.ProductRecord) string { return text(r.Dimensions.Length) }},
	{"Code Type", func(r *domain.ProductRecord) string { return text(r.Identifiers.CodeType) }},
	{"UPC", func(r *domain.ProductRecord) string { return text(r.Identifiers.UPC) }},
	{"EAN", func(r *domain.ProductRecord) string { return text(r.Identifiers.EAN) }},
	{"Barcode URL", func(r *domain.ProductRecord) string { return text(r.Identifiers.BarcodeURL) }},
	{"Image URL", func(r *domain.ProductRecord) string { return text(r.ImageURL) }},
	{"Created At", func(r *domain.ProductRecord) string { return text(r.CreatedAt) }},
	{"Last Modified", func(r *domain.ProductRecord) string { return text(r.LastModifiedAt) }},
	{"Sources", func(r *domain.ProductRecord) string { return text(strings.Join(r.Sources, ", ")) }},
	{"Attempts", func(r *domain.ProductRecord) string { return strconv.Itoa(r.Attempts) }},
	{"Enriched", func(r *domain.ProductRecord) string { return yesNo(r.Enriched) }},
	{"Error", func(r *domain.ProductRecord) string { return text(r.Error) }},
}

// Headers returns the header row
func Headers() []string {
	headers := make([]string, len(Columns))
	for i, c := range Columns {
		headers[i] = c.Header
	}
	return headers
}

// Row returns the cell values of one record
func Row(r *domain.ProductRecord) []string {
	row := make([]string, len(Columns))
	for i, c := range Columns {
		row[i] = c.Value(r)
	}
	return row
}

// BuildSpreadsheet writes one header row plus one row per record to an xlsx
// workbook, with a second sheet listing every raw specification.
func BuildSpreadsheet(records []*domain.ProductRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ProductsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"366092"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	rows := [][]string{Headers()}
	for _, r := range records {
		rows = append(rows, Row(r))
	}
	if err := writeRows(f, ProductsSheet, rows, headerStyle); err != nil {
		return nil, err
	}
	if err := f.SetPanes(ProductsSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.NewSheet(SpecsSheet); err != nil {
		return nil, fmt.Errorf("create specs sheet: %w", err)
	}
	if err := writeRows(f, SpecsSheet, specRows(records), headerStyle); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func specRows(records []*domain.ProductRecord) [][]string {
	rows := [][]string{{"Barcode", "Product", "Specification", "Value"}}
	for _, r := range records {
		names := make([]string, 0, len(r.Specs))
		for name := range r.Specs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rows = append(rows, []string{r.Barcode, text(r.Name), name, clean(r.Specs[name])})
		}
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]string, headerStyle int) error {
	widths := make([]int, len(rows[0]))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
			if n := utf8.RuneCountInString(v); n > widths[j] {
				widths[j] = n
			}
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for j, w := range widths {
		col, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(w+2, maxColumnWidth))); err != nil {
			return err
		}
	}
	return nil
}

// text returns the cleaned value or the sentinel when nothing is left
func text(v string) string {
	v = clean(v)
	if v == "" || v == domain.NoneValue {
		return domain.NotAvailable
	}
	return v
}

// list joins list values with ", " or returns NoneValue for an empty list
func list(items []string) string {
	var kept []string
	for _, item := range items {
		if item = clean(item); !domain.IsPlaceholder(item) {
			kept = append(kept, item)
		}
	}
	if len(kept) == 0 {
		return domain.NoneValue
	}
	return strings.Join(kept, ", ")
}

// clean collapses line breaks to spaces and trims
func clean(v string) string {
	return strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(v))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
