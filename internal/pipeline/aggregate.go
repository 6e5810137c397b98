package pipeline

import (
	"stock-pipeline/internal/model"
)

// MaxHigh returns the Aggregation of the record with the largest high.
// When several records share the maximum, the first one in input order wins.
func MaxHigh(records []model.StockRecord) (model.Aggregation, error) {
	if len(records) == 0 {
		return model.Aggregation{}, ErrEmptyInput
	}

	best := records[0]
	for _, rec := range records[1:] {
		// strict comparison keeps the earliest maximum
		if rec.High() > best.High() {
			best = rec
		}
	}
	return model.NewAggregation(best), nil
}
