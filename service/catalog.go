package service

import "fmt"

// Query is one named extraction question. The Key doubles as the alias sent
// to the extraction engine, which is how answers are correlated back to the
// catalog entry that produced them.
type Query struct {
	Key  string
	Text string
	Hint string // optional normalization hint for downstream review
}

// Catalog is an ordered list of extraction queries. It is fixed configuration
// loaded once at startup and safe for concurrent reads.
type Catalog []Query

// LabCatalog returns the queries run against lab-report documents: one per
// tracked lab metric plus the report date. Adding or removing a metric
// happens here and nowhere else.
func LabCatalog() Catalog {
	return Catalog{
		{Key: "potassium", Text: "What is the Potassium value?", Hint: "numeric"},
		{Key: "bun", Text: "What is the Blood Urea Nitrogen (BUN) value?", Hint: "numeric"},
		{Key: "phosphorus", Text: "What is the Phosphorus value?", Hint: "numeric"},
		{Key: "hemoglobin", Text: "What is the Hemoglobin value?", Hint: "numeric"},
		{Key: "platelets", Text: "What is the Platelets value?", Hint: "numeric"},
		{Key: "pt", Text: "What is the Prothrombin Time (PT) value?", Hint: "numeric"},
		{Key: "inr", Text: "What is the INR value?", Hint: "numeric"},
		{Key: "ptt", Text: "What is the PTT value?", Hint: "numeric"},
		{Key: "pth", Text: "What is the Parathyroid Hormone (PTH) value?", Hint: "numeric"},
		{Key: "a1c", Text: "What is the Hemoglobin A1c value?", Hint: "percent"},
		{Key: "albumin", Text: "What is the Albumin value?", Hint: "numeric"},
		{Key: "total_bilirubin", Text: "What is the Total Bilirubin value?", Hint: "numeric"},
		{Key: "total_cholesterol", Text: "What is the Total Cholesterol value?", Hint: "numeric"},
		{Key: "urine_protein", Text: "What is the Urine Protein value?"},
		{Key: "urine_rbc", Text: "What is the Urine Red Blood Cells value?"},
		{Key: "urine_wbc", Text: "What is the Urine White Blood Cells value?"},
		{Key: "urine_hemoglobin", Text: "What is the Urine Hemoglobin value?"},
		{Key: "lab_date", Text: "What is the date of the lab report?", Hint: "date"},
	}
}

// Validate checks the catalog's invariants: no duplicate keys, no empty keys
// or question text. Called once at startup.
func (c Catalog) Validate() error {
	seen := make(map[string]bool, len(c))
	for i, q := range c {
		if q.Key == "" {
			return fmt.Errorf("catalog entry %d has an empty key", i)
		}
		if q.Text == "" {
			return fmt.Errorf("catalog entry %q has empty query text", q.Key)
		}
		if seen[q.Key] {
			return fmt.Errorf("duplicate catalog key %q", q.Key)
		}
		seen[q.Key] = true
	}
	return nil
}

// Keys returns the catalog's key set in catalog order.
func (c Catalog) Keys() []string {
	keys := make([]string, len(c))
	for i, q := range c {
		keys[i] = q.Key
	}
	return keys
}
