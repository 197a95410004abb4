// Package product looks up decoded barcode values against the OpenFoodFacts
// API. Lookups are single-attempt with a fixed timeout; a missing record is
// a normal outcome, not an error the pipeline propagates.
package product

import (
	"context"
	"errors"
)

// ErrNotFound reports that the collaborator was reached but holds no record
// for the symbol. Semantically success for the scan as a whole.
var ErrNotFound = errors.New("product not found")

// Resolver resolves a decoded barcode value to a product record.
type Resolver interface {
	Resolve(ctx context.Context, code string) (*Record, error)
}

// Record is the canonical product shape returned by this service. It is a
// deliberately reduced view of the OpenFoodFacts payload.
type Record struct {
	Code            string     `json:"id"`
	Name            string     `json:"name"`
	GenericName     string     `json:"generic_name,omitempty"`
	Brands          string     `json:"brand,omitempty"`
	Categories      string     `json:"categories,omitempty"`
	ImageURL        string     `json:"image_url,omitempty"`
	NutriScoreGrade string     `json:"nutriscore_grade,omitempty"`
	Quantity        string     `json:"quantity,omitempty"`
	ServingSize     string     `json:"serving_size,omitempty"`
	IngredientsText string     `json:"ingredients_text,omitempty"`
	Allergens       string     `json:"allergens,omitempty"`
	Nutriments      Nutriments `json:"nutrition"`
}

// Nutriments carries per-100g nutrition values. Units follow the source
// data: energy in kcal, everything else in grams.
type Nutriments struct {
	EnergyKcal    float64 `json:"energy_kcal"`
	Fat           float64 `json:"fat"`
	SaturatedFat  float64 `json:"saturated_fat"`
	Carbohydrates float64 `json:"carbohydrates"`
	Sugars        float64 `json:"sugars"`
	Fiber         float64 `json:"fiber"`
	Proteins      float64 `json:"proteins"`
	Salt          float64 `json:"salt"`
	Sodium        float64 `json:"sodium"`
}

// SearchResult is one page of a free-text product search.
type SearchResult struct {
	Count    int      `json:"count"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	Products []Record `json:"products"`
}
