package refresh

import (
	"github.com/shopspring/decimal"

	"ndx-snapshot-backend/internal/models"
)

const weightPlaces = 4

// ApplyMarketCapWeights sets each quote's weight to its share of the total
// positive market cap, in percent rounded to 4 places. Quotes without a
// positive cap get nil, and every weight is nil when no cap is positive.
func ApplyMarketCapWeights(quotes []models.Quote) {
	total := decimal.Zero
	for i := range quotes {
		if c := quotes[i].MarketCap; c != nil && *c > 0 {
			total = total.Add(decimal.NewFromFloat(*c))
		}
	}

	hundred := decimal.NewFromInt(100)
	for i := range quotes {
		c := quotes[i].MarketCap
		if !total.IsPositive() || c == nil || *c <= 0 {
			quotes[i].Weight = nil
			continue
		}
		w := decimal.NewFromFloat(*c).Div(total).Mul(hundred).Round(weightPlaces).InexactFloat64()
		quotes[i].Weight = &w
	}
}
