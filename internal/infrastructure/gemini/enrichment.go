package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/logging"
	"google.golang.org/genai"
)

const enrichmentPrompt = `Search the web for the retail product with barcode %s%s.
Answer with ONE JSON object and nothing else, using exactly these keys:
{"name": "", "brand": "", "description": "", "category": "", "category_path": "", "department": "",
"product_type": "", "ingredients": "", "allergens": [], "additives": [], "nutrition_grade": "",
"organic": "", "non_gmo": "", "dimensions": {"height": "", "width": "", "length": ""}}
Use "" or [] for anything you cannot confirm. Do not guess.`

// Enricher asks a text model with web search grounding for product fields
type Enricher struct {
	client *Client
	model  string
}

// NewEnricher creates a web enrichment adapter
func NewEnricher(client *Client, model string) *Enricher {
	return &Enricher{client: client, model: model}
}

// enrichmentAnswer is the JSON object the model is asked to return. Models
// drift between strings, numbers and arrays, so every field is lenient.
type enrichmentAnswer struct {
	Name           flexString `json:"name"`
	Brand          flexString `json:"brand"`
	Description    flexString `json:"description"`
	Category       flexString `json:"category"`
	CategoryPath   flexString `json:"category_path"`
	Department     flexString `json:"department"`
	ProductType    flexString `json:"product_type"`
	Ingredients    flexString `json:"ingredients"`
	Allergens      flexList   `json:"allergens"`
	Additives      flexList   `json:"additives"`
	NutritionGrade flexString `json:"nutrition_grade"`
	Organic        flexString `json:"organic"`
	NonGMO         flexString `json:"non_gmo"`
	Dimensions     struct {
		Height flexString `json:"height"`
		Width  flexString `json:"width"`
		Length flexString `json:"length"`
	} `json:"dimensions"`
}

// Enrich returns the fields the model could confirm for barcode. productName
// is an optional hint.
func (e *Enricher) Enrich(ctx context.Context, barcode, productName string) (*domain.SourcePayload, error) {
	logger := logging.Component(ctx, domain.SourceEnrichment).With("barcode", barcode)

	code, err := domain.ValidateBarcode(barcode)
	if err != nil {
		return nil, err
	}

	hint := ""
	if name := strings.TrimSpace(productName); name != "" && !domain.IsPlaceholder(name) {
		hint = fmt.Sprintf(" (it may be sold as %q)", name)
	}

	var temperature float32
	config := &genai.GenerateContentConfig{
		Temperature: &temperature,
		Tools:       []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	parts := []*genai.Part{genai.NewPartFromText(fmt.Sprintf(enrichmentPrompt, code, hint))}

	resp, err := e.client.GenerateContent(ctx, domain.SourceEnrichment, e.model, parts, config)
	if err != nil {
		return nil, err
	}

	raw, ok := ExtractJSONObject(resp.Text())
	if !ok {
		return nil, domain.NewProviderError(domain.SourceEnrichment, domain.ErrProcessing, "no JSON object in model answer", nil)
	}

	var answer enrichmentAnswer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return nil, domain.NewProviderError(domain.SourceEnrichment, domain.ErrProcessing, "model answer is not valid JSON", err)
	}

	fields := answer.toFields()
	logger.Info("enrichment received", "name", fields.Name)
	return &domain.SourcePayload{Source: domain.SourceEnrichment, Fields: fields}, nil
}

func (a *enrichmentAnswer) toFields() domain.ProductFields {
	return domain.ProductFields{
		Name:           string(a.Name),
		Brand:          string(a.Brand),
		Description:    string(a.Description),
		Category:       string(a.Category),
		CategoryPath:   string(a.CategoryPath),
		Department:     string(a.Department),
		ProductType:    string(a.ProductType),
		Ingredients:    string(a.Ingredients),
		Allergens:      []string(a.Allergens),
		Additives:      []string(a.Additives),
		NutritionGrade: strings.ToUpper(string(a.NutritionGrade)),
		Organic:        string(a.Organic),
		NonGMO:         string(a.NonGMO),
		Dimensions: domain.Dimensions{
			Height: string(a.Dimensions.Height),
			Width:  string(a.Dimensions.Width),
			Length: string(a.Dimensions.Length),
		},
	}
}

// ExtractJSONObject returns the first balanced {...} in text, ignoring braces
// inside JSON strings.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// flexString accepts a JSON string, number, bool or null
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*s = ""
	case string:
		*s = flexString(cleanValue(t))
	case float64:
		*s = flexString(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		if t {
			*s = "Yes"
		} else {
			*s = "No"
		}
	case []interface{}:
		*s = flexString(strings.Join(toStrings(t), ", "))
	default:
		*s = ""
	}
	return nil
}

// flexList accepts a JSON array, a comma separated string or null
type flexList []string

func (l *flexList) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		var items []string
		for _, part := range strings.Split(t, ",") {
			if item := cleanValue(part); item != "" {
				items = append(items, item)
			}
		}
		*l = items
	case []interface{}:
		*l = toStrings(t)
	default:
		*l = nil
	}
	return nil
}

func toStrings(values []interface{}) []string {
	var out []string
	for _, v := range values {
		var s string
		switch t := v.(type) {
		case string:
			s = cleanValue(t)
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// cleanValue trims and drops the "unknown" answers models give instead of ""
func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "n/a", "na", "unknown", "null", "none", "not available":
		return ""
	}
	return s
}
