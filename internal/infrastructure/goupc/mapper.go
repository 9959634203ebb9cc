package goupc

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
)

// Spec names Go-UPC uses for the fields we lift out of product.specs
const (
	SpecDepartment = "Department"
	SpecCommodity  = "Commodity"
	SpecAllergens  = "Allergens"
	SpecOrganic    = "Organic"
	SpecNonGMO     = "Non-GMO"
	SpecHeight     = "Height"
	SpecWidth      = "Width"
	SpecLength     = "Length"
)

// CodeResponse is the body of GET /code/{code}
type CodeResponse struct {
	Code       string   `json:"code"`
	CodeType   string   `json:"codeType"`
	Product    *Product `json:"product"`
	BarcodeURL string   `json:"barcodeUrl"`
	Inferred   bool     `json:"inferred"`
}

// Product is the product object of a Go-UPC response
type Product struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	ImageURL     string     `json:"imageUrl"`
	Brand        string     `json:"brand"`
	Specs        [][]string `json:"specs"`
	Category     string     `json:"category"`
	CategoryPath []string   `json:"categoryPath"`
	UPC          Identifier `json:"upc"`
	EAN          Identifier `json:"ean"`
	Ingredients  *struct {
		Text string `json:"text"`
	} `json:"ingredients"`
}

// Identifier is a product code Go-UPC sends either as a JSON number or as a
// string. Strings keep their leading zeros.
type Identifier string

func (id *Identifier) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*id = Identifier(strings.TrimSpace(t))
	case json.Number:
		*id = Identifier(t.String())
	default:
		*id = ""
	}
	return nil
}

// MapToFields converts a Go-UPC response into mergeable product fields
func MapToFields(resp *CodeResponse) domain.ProductFields {
	p := resp.Product
	specs := specsToMap(p.Specs)

	fields := domain.ProductFields{
		Name:         strings.TrimSpace(p.Name),
		Brand:        strings.TrimSpace(p.Brand),
		Description:  strings.TrimSpace(p.Description),
		Category:     strings.TrimSpace(p.Category),
		CategoryPath: strings.Join(p.CategoryPath, " > "),
		Department:   specs[SpecDepartment],
		ProductType:  specs[SpecCommodity],
		Allergens:    splitList(specs[SpecAllergens]),
		Organic:      specs[SpecOrganic],
		NonGMO:       specs[SpecNonGMO],
		Dimensions: domain.Dimensions{
			Height: specs[SpecHeight],
			Width:  specs[SpecWidth],
			Length: specs[SpecLength],
		},
		Identifiers: domain.Identifiers{
			CodeType:   resp.CodeType,
			UPC:        string(p.UPC),
			EAN:        string(p.EAN),
			BarcodeURL: resp.BarcodeURL,
		},
		ImageURL: p.ImageURL,
	}
	if p.Ingredients != nil {
		fields.Ingredients = strings.TrimSpace(p.Ingredients.Text)
	}
	if len(specs) > 0 {
		fields.Specs = specs
	}
	return fields
}

// specsToMap turns [["Name","Value"], ...] into a map, skipping short pairs
func specsToMap(specs [][]string) map[string]string {
	out := make(map[string]string, len(specs))
	for _, spec := range specs {
		if len(spec) < 2 {
			continue
		}
		out[strings.TrimSpace(spec[0])] = strings.TrimSpace(spec[1])
	}
	return out
}

// splitList splits a comma separated spec value into trimmed, non-empty items
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}
