package usecase

import (
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
)

// Provenance keys for list and map valued fields
const (
	FieldAllergens = "allergens"
	FieldAdditives = "additives"
	FieldSpecs     = "specs"
)

// stringField addresses one mergeable string field by its provenance key
type stringField struct {
	key string
	ref func(f *domain.ProductFields) *string
}

var stringFields = []stringField{
	{"name", func(f *domain.ProductFields) *string { return &f.Name }},
	{"brand", func(f *domain.ProductFields) *string { return &f.Brand }},
	{"description", func(f *domain.ProductFields) *string { return &f.Description }},
	{"category", func(f *domain.ProductFields) *string { return &f.Category }},
	{"categoryPath", func(f *domain.ProductFields) *string { return &f.CategoryPath }},
	{"department", func(f *domain.ProductFields) *string { return &f.Department }},
	{"productType", func(f *domain.ProductFields) *string { return &f.ProductType }},
	{"ingredients", func(f *domain.ProductFields) *string { return &f.Ingredients }},
	{"nutritionGrade", func(f *domain.ProductFields) *string { return &f.NutritionGrade }},
	{"organic", func(f *domain.ProductFields) *string { return &f.Organic }},
	{"nonGmo", func(f *domain.ProductFields) *string { return &f.NonGMO }},
	{"dimensions.height", func(f *domain.ProductFields) *string { return &f.Dimensions.Height }},
	{"dimensions.width", func(f *domain.ProductFields) *string { return &f.Dimensions.Width }},
	{"dimensions.length", func(f *domain.ProductFields) *string { return &f.Dimensions.Length }},
	{"identifiers.codeType", func(f *domain.ProductFields) *string { return &f.Identifiers.CodeType }},
	{"identifiers.upc", func(f *domain.ProductFields) *string { return &f.Identifiers.UPC }},
	{"identifiers.ean", func(f *domain.ProductFields) *string { return &f.Identifiers.EAN }},
	{"identifiers.barcodeUrl", func(f *domain.ProductFields) *string { return &f.Identifiers.BarcodeURL }},
	{"imageUrl", func(f *domain.ProductFields) *string { return &f.ImageURL }},
	{"createdAt", func(f *domain.ProductFields) *string { return &f.CreatedAt }},
	{"lastModifiedAt", func(f *domain.ProductFields) *string { return &f.LastModifiedAt }},
}

// Aggregator merges source payloads into one normalized record
type Aggregator struct{}

// NewAggregator creates a new aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Merge combines payloads given in priority order: a field is taken from the
// first payload that has a non-placeholder value for it, so a later source
// never overwrites a populated field. Nil payloads stand for failed sources.
// Found is true when at least one payload is present. Merge never fails:
// every string field left empty becomes domain.NotAvailable.
func (a *Aggregator) Merge(barcode string, payloads ...*domain.SourcePayload) *domain.ProductRecord {
	record := &domain.ProductRecord{
		Barcode:    barcode,
		Sources:    []string{},
		Provenance: make(map[string]string),
	}

	for _, p := range payloads {
		if p == nil {
			continue
		}
		record.Found = true
		record.Sources = append(record.Sources, p.Source)
		a.mergeInto(record, p)
	}

	a.finalize(record)
	return record
}

// mergeInto fills the empty fields of record from p
func (a *Aggregator) mergeInto(record *domain.ProductRecord, p *domain.SourcePayload) {
	src := p.Fields

	for _, field := range stringFields {
		dst := field.ref(&record.ProductFields)
		val := field.ref(&src)
		if domain.IsPlaceholder(*dst) && !domain.IsPlaceholder(*val) {
			*dst = *val
			record.Provenance[field.key] = p.Source
		}
	}

	if len(record.Allergens) == 0 && len(nonPlaceholder(src.Allergens)) > 0 {
		record.Allergens = nonPlaceholder(src.Allergens)
		record.Provenance[FieldAllergens] = p.Source
	}
	if len(record.Additives) == 0 && len(nonPlaceholder(src.Additives)) > 0 {
		record.Additives = nonPlaceholder(src.Additives)
		record.Provenance[FieldAdditives] = p.Source
	}

	for name, value := range src.Specs {
		if domain.IsPlaceholder(value) {
			continue
		}
		if record.Specs == nil {
			record.Specs = make(map[string]string)
		}
		if _, exists := record.Specs[name]; !exists {
			record.Specs[name] = value
			if _, tagged := record.Provenance[FieldSpecs]; !tagged {
				record.Provenance[FieldSpecs] = p.Source
			}
		}
	}
}

// finalize applies the placeholder exactly once, after every source is merged
func (a *Aggregator) finalize(record *domain.ProductRecord) {
	for _, field := range stringFields {
		if v := field.ref(&record.ProductFields); domain.IsPlaceholder(*v) {
			*v = domain.NotAvailable
		}
	}
	if record.Allergens == nil {
		record.Allergens = []string{}
	}
	if record.Additives == nil {
		record.Additives = []string{}
	}
}

func nonPlaceholder(items []string) []string {
	var out []string
	for _, item := range items {
		if !domain.IsPlaceholder(item) {
			out = append(out, item)
		}
	}
	return out
}
