package sources

import (
	"context"
	"fmt"
	"time"

	"dealvoy/internal/domain/entity"
	"dealvoy/internal/domain/service/scraper"
)

// movers scans look back one day of readings.
const defaultLookback = 24 * time.Hour

// SnapshotReader is the slice of the price-history repository the source
// adapter needs.
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context, retailer, upc string) (entity.PriceSnapshot, error)
	RecentMovers(ctx context.Context, retailer string, minROI float64, since time.Time) ([]entity.ExportItem, error)
	Retailers(ctx context.Context) ([]string, error)
}

// PriceHistorySource exposes one retailer's stored readings as a snapshot
// source. The retailer-facing scraping clients that fill the table live
// outside the dispatch core.
type PriceHistorySource struct {
	reader   SnapshotReader
	retailer string
}

func NewPriceHistorySource(reader SnapshotReader, retailer string) PriceHistorySource {
	return PriceHistorySource{
		reader:   reader,
		retailer: retailer,
	}
}

func (s PriceHistorySource) Fetch(ctx context.Context, upc string) (entity.PriceSnapshot, error) {
	return s.reader.LatestSnapshot(ctx, s.retailer, upc)
}

// PriceHistoryBatchSource scans one retailer's stored readings for recent
// price drops that clear the ROI threshold.
type PriceHistoryBatchSource struct {
	reader   SnapshotReader
	retailer string
	minROI   float64
	lookback time.Duration
}

func NewPriceHistoryBatchSource(reader SnapshotReader, retailer string, minROI float64) PriceHistoryBatchSource {
	return PriceHistoryBatchSource{
		reader:   reader,
		retailer: retailer,
		minROI:   minROI,
		lookback: defaultLookback,
	}
}

func (s PriceHistoryBatchSource) WithLookback(d time.Duration) PriceHistoryBatchSource {
	if d > 0 {
		s.lookback = d
	}
	return s
}

func (s PriceHistoryBatchSource) FetchBatch(ctx context.Context) ([]entity.ExportItem, error) {
	return s.reader.RecentMovers(ctx, s.retailer, s.minROI, time.Now().Add(-s.lookback))
}

// RegisterRetailers registers one snapshot source and one batch source per
// retailer present in the price history, keeping the table's first-seen
// order so orchestrator runs stay reproducible across restarts.
func RegisterRetailers(ctx context.Context, registry *scraper.Registry, reader SnapshotReader, minROI float64) ([]string, error) {
	retailers, err := reader.Retailers(ctx)
	if err != nil {
		return nil, fmt.Errorf("reader.Retailers: %w", err)
	}

	for _, retailer := range retailers {
		registry.Register(retailer, NewPriceHistorySource(reader, retailer))
		registry.RegisterBatch(retailer, NewPriceHistoryBatchSource(reader, retailer, minROI))
	}

	return retailers, nil
}
