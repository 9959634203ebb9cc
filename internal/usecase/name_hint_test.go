package usecase

import (
	"strings"
	"testing"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
)

func TestNameHint(t *testing.T) {
	testCases := []struct {
		name        string
		productName string
		brand       string
		want        string
	}{
		{
			name:        "removes size in fl oz",
			productName: "Coca-Cola, 12 fl oz",
			want:        "Coca-Cola",
		},
		{
			name:        "removes metric sizes",
			productName: "Nutella 400 g",
			want:        "Nutella",
		},
		{
			name:        "removes pack count",
			productName: "Coca-Cola Soda Pop, 6 pack",
			want:        "Coca-Cola Soda Pop",
		},
		{
			name:        "removes marketing terms",
			productName: "Premium Select Quality Chicken Breast",
			want:        "Chicken Breast",
		},
		{
			name:        "prepends brand when not in name",
			productName: "Whole Milk",
			brand:       "Alpine",
			want:        "Alpine Whole Milk",
		},
		{
			name:        "does not duplicate brand",
			productName: "Alpine Whole Milk",
			brand:       "alpine",
			want:        "Alpine Whole Milk",
		},
		{
			name:        "placeholder name gives no hint",
			productName: domain.NotAvailable,
			brand:       "Alpine",
			want:        "",
		},
		{
			name:        "placeholder brand ignored",
			productName: "Whole Milk",
			brand:       domain.NotAvailable,
			want:        "Whole Milk",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NameHint(tc.productName, tc.brand); got != tc.want {
				t.Errorf("NameHint(%q, %q) = %q, want %q", tc.productName, tc.brand, got, tc.want)
			}
		})
	}
}

func TestNameHint_LongInput(t *testing.T) {
	long := strings.Repeat("chocolate ", 30)

	got := NameHint(long, "")

	if len([]rune(got)) > maxHintLength {
		t.Errorf("NameHint() length = %d, want <= %d", len([]rune(got)), maxHintLength)
	}
	if strings.HasSuffix(got, " ") {
		t.Errorf("NameHint() = %q, should not end with a space", got)
	}
}
