package openfoodfacts

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
)

// TimestampLayout formats created_t and last_modified_t
const TimestampLayout = "2006-01-02 15:04:05"

// ProductResponse is the body of GET /api/v2/product/{code}.json
type ProductResponse struct {
	Code          string   `json:"code"`
	Status        int      `json:"status"`
	StatusVerbose string   `json:"status_verbose"`
	Product       *Product `json:"product"`
}

// Product holds the subset of Open Food Facts product fields we use
type Product struct {
	ProductName      string      `json:"product_name"`
	Brands           string      `json:"brands"`
	GenericName      string      `json:"generic_name"`
	Categories       string      `json:"categories"`
	ImageURL         string      `json:"image_url"`
	NutritionGradeFr string      `json:"nutrition_grade_fr"`
	IngredientsText  string      `json:"ingredients_text"`
	AllergensTags    []string    `json:"allergens_tags"`
	AdditivesTags    []string    `json:"additives_tags"`
	CreatedT         json.Number `json:"created_t"`
	LastModifiedT    json.Number `json:"last_modified_t"`
	Quantity         string      `json:"quantity"`
	Labels           string      `json:"labels"`
}

// MapToFields converts an Open Food Facts product into mergeable product fields
func MapToFields(code string, p *Product) domain.ProductFields {
	fields := domain.ProductFields{
		Name:           strings.TrimSpace(p.ProductName),
		Brand:          strings.TrimSpace(p.Brands),
		Description:    strings.TrimSpace(p.GenericName),
		Category:       strings.TrimSpace(p.Categories),
		ImageURL:       p.ImageURL,
		NutritionGrade: strings.ToUpper(strings.TrimSpace(p.NutritionGradeFr)),
		Ingredients:    strings.TrimSpace(p.IngredientsText),
		Allergens:      stripTags(p.AllergensTags),
		Additives:      stripTags(p.AdditivesTags),
		CreatedAt:      formatUnix(p.CreatedT),
		LastModifiedAt: formatUnix(p.LastModifiedT),
		Identifiers:    domain.Identifiers{EAN: code},
	}

	specs := map[string]string{}
	if q := strings.TrimSpace(p.Quantity); q != "" {
		specs["Quantity"] = q
	}
	if l := strings.TrimSpace(p.Labels); l != "" {
		specs["Labels"] = l
		if hasLabel(l, "organic") {
			fields.Organic = "Yes"
		}
		if hasLabel(l, "no gmos") || hasLabel(l, "non-gmo") {
			fields.NonGMO = "Yes"
		}
	}
	if len(specs) > 0 {
		fields.Specs = specs
	}
	return fields
}

// stripTags drops the "en:" style language prefix from taxonomy tags
func stripTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		if i := strings.Index(tag, ":"); i >= 0 {
			tag = tag[i+1:]
		}
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func formatUnix(n json.Number) string {
	secs, err := n.Int64()
	if err != nil || secs <= 0 {
		return ""
	}
	return time.Unix(secs, 0).UTC().Format(TimestampLayout)
}

func hasLabel(labels, label string) bool {
	for _, part := range strings.Split(labels, ",") {
		if strings.EqualFold(strings.TrimSpace(part), label) {
			return true
		}
	}
	return false
}
