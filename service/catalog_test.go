package service

import (
	"strings"
	"testing"
)

func TestLabCatalogSize(t *testing.T) {
	catalog := LabCatalog()
	if len(catalog) != 18 {
		t.Fatalf("Expected 18 catalog entries, got %d", len(catalog))
	}
}

func TestLabCatalogKeys(t *testing.T) {
	required := []string{
		"potassium", "bun", "phosphorus", "hemoglobin", "platelets",
		"pt", "inr", "ptt", "pth", "a1c", "albumin",
		"total_bilirubin", "total_cholesterol",
		"urine_protein", "urine_rbc", "urine_wbc", "urine_hemoglobin",
		"lab_date",
	}

	keys := make(map[string]bool)
	for _, k := range LabCatalog().Keys() {
		keys[k] = true
	}

	for _, k := range required {
		if !keys[k] {
			t.Errorf("catalog missing key %q", k)
		}
	}
}

func TestLabCatalogQueryText(t *testing.T) {
	texts := make(map[string]string)
	for _, q := range LabCatalog() {
		texts[q.Key] = q.Text
	}

	tests := []struct {
		key      string
		fragment string
	}{
		{"potassium", "Potassium"},
		{"bun", "Blood Urea Nitrogen"},
		{"a1c", "A1c"},
		{"lab_date", "date"},
	}
	for _, tt := range tests {
		if !strings.Contains(texts[tt.key], tt.fragment) {
			t.Errorf("query %q text %q does not mention %q", tt.key, texts[tt.key], tt.fragment)
		}
	}
}

func TestCatalogValidate(t *testing.T) {
	if err := LabCatalog().Validate(); err != nil {
		t.Errorf("default catalog should validate: %v", err)
	}

	tests := []struct {
		name    string
		catalog Catalog
	}{
		{"duplicate key", Catalog{{Key: "a", Text: "x"}, {Key: "a", Text: "y"}}},
		{"empty key", Catalog{{Key: "", Text: "x"}}},
		{"empty text", Catalog{{Key: "a", Text: ""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.catalog.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
