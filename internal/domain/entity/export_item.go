package entity

// ExportItem is a normalized arbitrage opportunity that qualified against
// the ROI threshold and is ready to be queued for webhook delivery.
type ExportItem struct {
	UPC    string  `json:"upc"`
	Price  float64 `json:"price"`
	ROI    float64 `json:"roi"`
	Source string  `json:"source"`
}
