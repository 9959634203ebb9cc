package domain

// NotAvailable is the placeholder for any field no source populated.
const NotAvailable = "Not available"

// NoneValue is the placeholder for an empty list-valued field (allergens, additives).
const NoneValue = "None"

// Source names used for provenance
const (
	SourceGoUPC         = "go-upc"
	SourceOpenFoodFacts = "openfoodfacts"
	SourceEnrichment    = "gemini-enrichment"
)

// Dimensions holds the package measurements as reported by the source.
type Dimensions struct {
	Height string `json:"height" yaml:"height"`
	Width  string `json:"width" yaml:"width"`
	Length string `json:"length" yaml:"length"`
}

// Identifiers holds the codes a source reports for the product.
type Identifiers struct {
	CodeType   string `json:"codeType" yaml:"code_type"`
	UPC        string `json:"upc" yaml:"upc"`
	EAN        string `json:"ean" yaml:"ean"`
	BarcodeURL string `json:"barcodeUrl" yaml:"barcode_url"`
}

// ProductFields are the mergeable product attributes. An empty string or nil
// slice means the source did not provide the value.
type ProductFields struct {
	Name           string            `json:"name" yaml:"name"`
	Brand          string            `json:"brand" yaml:"brand"`
	Description    string            `json:"description" yaml:"description"`
	Category       string            `json:"category" yaml:"category"`
	CategoryPath   string            `json:"categoryPath" yaml:"category_path"`
	Department     string            `json:"department" yaml:"department"`
	ProductType    string            `json:"productType" yaml:"product_type"`
	Ingredients    string            `json:"ingredients" yaml:"ingredients"`
	Allergens      []string          `json:"allergens" yaml:"allergens"`
	Additives      []string          `json:"additives" yaml:"additives"`
	NutritionGrade string            `json:"nutritionGrade" yaml:"nutrition_grade"`
	Organic        string            `json:"organic" yaml:"organic"`
	NonGMO         string            `json:"nonGmo" yaml:"non_gmo"`
	Dimensions     Dimensions        `json:"dimensions" yaml:"dimensions"`
	Identifiers    Identifiers       `json:"identifiers" yaml:"identifiers"`
	ImageURL       string            `json:"imageUrl" yaml:"image_url"`
	CreatedAt      string            `json:"createdAt" yaml:"created_at"`
	LastModifiedAt string            `json:"lastModifiedAt" yaml:"last_modified_at"`
	Specs          map[string]string `json:"specs,omitempty" yaml:"specs,omitempty"`
}

// SourcePayload is the Ok arm of a lookup or enrichment call.
type SourcePayload struct {
	Source string        `json:"source"`
	Fields ProductFields `json:"fields"`
}

// ProductRecord is the normalized output for one barcode.
type ProductRecord struct {
	Barcode string `json:"barcode" yaml:"barcode"`

	ProductFields `yaml:",inline"`

	Found      bool              `json:"found" yaml:"found"`
	Sources    []string          `json:"sources" yaml:"sources"`
	Provenance map[string]string `json:"provenance,omitempty" yaml:"provenance,omitempty"`
	Attempts   int               `json:"attempts" yaml:"attempts"`
	Enriched   bool              `json:"enriched" yaml:"enriched"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// IsPlaceholder reports whether v carries no information.
func IsPlaceholder(v string) bool {
	return v == "" || v == NotAvailable || v == NoneValue
}
