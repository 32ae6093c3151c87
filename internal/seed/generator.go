// Package seed generates synthetic click events and writes them to the
// database at a fixed pace.
package seed

import (
	"fmt"
	"math"
	"time"

	"clickseed/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// GeneratorOptions configures click generation.
type GeneratorOptions struct {
	BaseTime       time.Time
	Step           time.Duration
	CostMin        float64
	CostMax        float64
	ConversionRate float64
	UserIDWidth    int
	// RandomSeed makes costs and conversions reproducible; 0 picks a random seed.
	RandomSeed int64
}

// DefaultGeneratorOptions returns the fixed parameters of the click loader:
// one click per minute after 2023-02-01 13:30:25 UTC, cost in [0.5, 5.5],
// even odds of conversion and 12-digit user ids.
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		BaseTime:       time.Date(2023, 2, 1, 13, 30, 25, 0, time.UTC),
		Step:           time.Minute,
		CostMin:        0.5,
		CostMax:        5.5,
		ConversionRate: 0.5,
		UserIDWidth:    12,
	}
}

// Generator builds ClickEvents. It is not safe for concurrent use.
type Generator struct {
	opts  GeneratorOptions
	faker *gofakeit.Faker
}

// NewGenerator creates a Generator.
func NewGenerator(opts GeneratorOptions) *Generator {
	return &Generator{
		opts:  opts,
		faker: gofakeit.New(opts.RandomSeed),
	}
}

// Build returns the click for 1-based index i.
func (g *Generator) Build(i int) models.ClickEvent {
	return models.ClickEvent{
		ClickTS:      ClickTime(g.opts.BaseTime, g.opts.Step, i),
		AdCost:       roundCents(g.faker.Float64Range(g.opts.CostMin, g.opts.CostMax)),
		IsConversion: g.converts(),
		UserID:       UserID(i, g.opts.UserIDWidth),
	}
}

// converts draws uniformly from [0, 1). Faker.Float64 spans the whole
// float64 range and cannot be compared against a probability.
func (g *Generator) converts() bool {
	return g.faker.Float64Range(0, 1) < g.opts.ConversionRate
}

// ClickTime is base plus i steps, in UTC.
func ClickTime(base time.Time, step time.Duration, i int) time.Time {
	return base.Add(time.Duration(i) * step).UTC()
}

// UserID left-pads i with zeros to width. Wider numbers are kept whole.
func UserID(i, width int) string {
	return fmt.Sprintf("%0*d", width, i)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
