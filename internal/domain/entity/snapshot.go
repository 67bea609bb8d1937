package entity

// PriceSnapshot is one observed price reading from one source at one point
// in time. Snapshots are ephemeral: they are produced per fetch call and
// never persisted directly.
type PriceSnapshot struct {
	UPC           string
	Price         float64
	PreviousPrice float64
	Source        string
}

// PriceDelta is the result of comparing a snapshot's current price against
// its baseline.
type PriceDelta struct {
	UPC           string  `json:"upc"`
	CurrentPrice  float64 `json:"current_price"`
	PreviousPrice float64 `json:"previous_price"`
	DeltaAmount   float64 `json:"delta_amt"`
	DeltaPercent  float64 `json:"delta_pct"`
	Arbitrage     bool    `json:"arbitrage"`
}
