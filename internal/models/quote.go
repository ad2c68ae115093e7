package models

import "time"

// Spark is an intraday close series. Timestamps are epoch milliseconds and
// always line up one-to-one with Closes.
type Spark struct {
	Interval   string    `json:"interval" bson:"interval"`
	Timestamps []int64   `json:"timestamps" bson:"timestamps"`
	Closes     []float64 `json:"closes" bson:"closes"`
}

// Quote is the normalized per-symbol record served to readers. Optional
// numeric fields stay nil when no upstream source carried them.
type Quote struct {
	Symbol   string   `json:"symbol" bson:"symbol"`
	Name     string   `json:"name" bson:"name"`
	Sector   *string  `json:"sector" bson:"sector"`
	Industry *string  `json:"industry" bson:"industry"`
	Weight   *float64 `json:"weight" bson:"weight"`

	MarketCap     *float64 `json:"marketCap" bson:"marketCap"`
	ChangePct     float64  `json:"changePct" bson:"changePct"`
	Last          *float64 `json:"last" bson:"last"`
	PreviousClose *float64 `json:"previousClose" bson:"previousClose"`
	Open          *float64 `json:"open" bson:"open"`
	DayHigh       *float64 `json:"dayHigh" bson:"dayHigh"`
	DayLow        *float64 `json:"dayLow" bson:"dayLow"`

	Volume             *float64 `json:"volume" bson:"volume"`
	AverageVolume10Day *float64 `json:"averageVolume10Day" bson:"averageVolume10Day"`
	AverageVolume30Day *float64 `json:"averageVolume30Day" bson:"averageVolume30Day"`

	PERatio       *float64 `json:"peRatio" bson:"peRatio"`
	Beta          *float64 `json:"beta" bson:"beta"`
	EPS           *float64 `json:"eps" bson:"eps"`
	DividendYield *float64 `json:"dividendYield" bson:"dividendYield"`

	FiftyTwoWeekHigh      *float64 `json:"fiftyTwoWeekHigh" bson:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow       *float64 `json:"fiftyTwoWeekLow" bson:"fiftyTwoWeekLow"`
	FiftyTwoWeekChange    *float64 `json:"fiftyTwoWeekChange" bson:"fiftyTwoWeekChange"`
	FiftyTwoWeekChangePct *float64 `json:"fiftyTwoWeekChangePct" bson:"fiftyTwoWeekChangePct"`

	MarketState *string   `json:"marketState" bson:"marketState"`
	FetchedAt   time.Time `json:"fetchedAt" bson:"fetchedAt"`
	Spark       *Spark    `json:"spark" bson:"spark"`
}

// Clone returns a deep copy: no pointer or slice is shared with q.
func (q Quote) Clone() Quote {
	out := q
	out.Sector = clonePtr(q.Sector)
	out.Industry = clonePtr(q.Industry)
	out.Weight = clonePtr(q.Weight)
	out.MarketCap = clonePtr(q.MarketCap)
	out.Last = clonePtr(q.Last)
	out.PreviousClose = clonePtr(q.PreviousClose)
	out.Open = clonePtr(q.Open)
	out.DayHigh = clonePtr(q.DayHigh)
	out.DayLow = clonePtr(q.DayLow)
	out.Volume = clonePtr(q.Volume)
	out.AverageVolume10Day = clonePtr(q.AverageVolume10Day)
	out.AverageVolume30Day = clonePtr(q.AverageVolume30Day)
	out.PERatio = clonePtr(q.PERatio)
	out.Beta = clonePtr(q.Beta)
	out.EPS = clonePtr(q.EPS)
	out.DividendYield = clonePtr(q.DividendYield)
	out.FiftyTwoWeekHigh = clonePtr(q.FiftyTwoWeekHigh)
	out.FiftyTwoWeekLow = clonePtr(q.FiftyTwoWeekLow)
	out.FiftyTwoWeekChange = clonePtr(q.FiftyTwoWeekChange)
	out.FiftyTwoWeekChangePct = clonePtr(q.FiftyTwoWeekChangePct)
	out.MarketState = clonePtr(q.MarketState)
	if q.Spark != nil {
		out.Spark = &Spark{
			Interval:   q.Spark.Interval,
			Timestamps: append([]int64(nil), q.Spark.Timestamps...),
			Closes:     append([]float64(nil), q.Spark.Closes...),
		}
	}
	return out
}

// CloneQuotes deep-copies a quote list. A nil input yields an empty slice.
func CloneQuotes(quotes []Quote) []Quote {
	out := make([]Quote, len(quotes))
	for i := range quotes {
		out[i] = quotes[i].Clone()
	}
	return out
}

// NewestFetchedAt returns the latest FetchedAt across quotes, or nil.
func NewestFetchedAt(quotes []Quote) *time.Time {
	var newest *time.Time
	for i := range quotes {
		at := quotes[i].FetchedAt
		if at.IsZero() {
			continue
		}
		if newest == nil || at.After(*newest) {
			t := at
			newest = &t
		}
	}
	return newest
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
