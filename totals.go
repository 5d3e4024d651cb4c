package pdftakeoff

import (
	"sort"

	"github.com/samber/lo"
)

// TotalLine is one priced measurement.
type TotalLine struct {
	MeasurementID string
	Label         string
	Product       string
	Quantity      float64
	Unit          string
	UnitPrice     float64
	Amount        float64
}

// CategoryTotal sums the priced measurements of one product category.
type CategoryTotal struct {
	Category string
	Lines    []TotalLine
	Total    float64
}

// ComputeTotals prices every measurement that carries a product as
// quantity × unit price and groups the results by category. Categories are
// sorted by name; lines keep measurement order.
func ComputeTotals(measurements []Measurement) []CategoryTotal {
	priced := lo.Filter(measurements, func(m Measurement, _ int) bool {
		return m.Product != nil
	})
	byCategory := lo.GroupBy(priced, func(m Measurement) string {
		return m.Product.Category
	})

	totals := make([]CategoryTotal, 0, len(byCategory))
	for category, ms := range byCategory {
		lines := lo.Map(ms, func(m Measurement, _ int) TotalLine {
			return TotalLine{
				MeasurementID: m.ID,
				Label:         m.Label,
				Product:       m.Product.Name,
				Quantity:      m.Value,
				Unit:          m.Unit,
				UnitPrice:     m.Product.UnitPrice,
				Amount:        m.Value * m.Product.UnitPrice,
			}
		})
		totals = append(totals, CategoryTotal{
			Category: category,
			Lines:    lines,
			Total:    lo.SumBy(lines, func(l TotalLine) float64 { return l.Amount }),
		})
	}

	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Category < totals[j].Category
	})
	return totals
}

// GrandTotal sums all category totals.
func GrandTotal(totals []CategoryTotal) float64 {
	return lo.SumBy(totals, func(t CategoryTotal) float64 { return t.Total })
}
