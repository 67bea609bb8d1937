package persistence

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"dealvoy/internal/domain"
	"dealvoy/internal/domain/entity"
	"dealvoy/pkg/errcodes"
)

// PriceHistoryRepository reads the price_history table fed by the external
// scraping modules. The dispatch core treats it as a read-only baseline
// store; the retailer-facing clients that fill it run as separate services.
type PriceHistoryRepository struct {
	db *sqlx.DB
}

func NewPriceHistoryRepository(db *sqlx.DB) *PriceHistoryRepository {
	return &PriceHistoryRepository{db: db}
}

// LatestSnapshot builds a snapshot for (retailer, upc) from the two most
// recent readings: the newest is the current price, the one before it the
// baseline. With a single reading there is no baseline and the delta
// computer will not flag arbitrage.
func (r *PriceHistoryRepository) LatestSnapshot(ctx context.Context, retailer, upc string) (entity.PriceSnapshot, error) {
	query := `
		SELECT product_upc, retailer, price, in_stock, timestamp
		FROM price_history
		WHERE retailer = $1 AND product_upc = $2
		ORDER BY timestamp DESC
		LIMIT 2`

	var schemas []priceReadingSchema
	if err := r.db.SelectContext(ctx, &schemas, query, retailer, upc); err != nil {
		return entity.PriceSnapshot{}, domain.WrapError(err, errcodes.InternalServerError, "failed to read price history")
	}

	if len(schemas) == 0 {
		return entity.PriceSnapshot{}, domain.NewError(errcodes.SourceUnavailable,
			"no price readings for "+retailer+"/"+upc)
	}

	snapshot := entity.PriceSnapshot{
		UPC:    upc,
		Price:  schemas[0].Price,
		Source: retailer,
	}

	if len(schemas) > 1 {
		snapshot.PreviousPrice = schemas[1].Price
	}

	return snapshot, nil
}

// Record appends one price reading. Used by ingestion collaborators and by
// tests to seed baselines.
func (r *PriceHistoryRepository) Record(ctx context.Context, retailer, upc string, price float64, inStock bool) error {
	query := `
		INSERT INTO price_history (product_upc, retailer, price, in_stock, timestamp)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, query, upc, retailer, price, inStock, time.Now()); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to record price reading")
	}

	return nil
}

// RecentMovers finds products at one retailer whose latest reading dropped
// against the one before it by at least minROI, scanning readings newer
// than since. Powers the batch scan path.
func (r *PriceHistoryRepository) RecentMovers(ctx context.Context, retailer string, minROI float64, since time.Time) ([]entity.ExportItem, error) {
	query := `
		WITH ranked AS (
			SELECT product_upc, price,
			       ROW_NUMBER() OVER (PARTITION BY product_upc ORDER BY timestamp DESC) AS rn
			FROM price_history
			WHERE retailer = $1 AND timestamp > $2
		)
		SELECT cur.product_upc AS product_upc,
		       cur.price AS current_price,
		       prev.price AS previous_price
		FROM ranked cur
		JOIN ranked prev ON prev.product_upc = cur.product_upc AND prev.rn = 2
		WHERE cur.rn = 1
		  AND prev.price > 0
		  AND (prev.price - cur.price) / prev.price >= $3
		ORDER BY (prev.price - cur.price) / prev.price DESC`

	var schemas []priceMoverSchema
	if err := r.db.SelectContext(ctx, &schemas, query, retailer, since, minROI); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to scan price movers")
	}

	items := make([]entity.ExportItem, 0, len(schemas))

	for _, s := range schemas {
		items = append(items, entity.ExportItem{
			UPC:    s.UPC,
			Price:  s.CurrentPrice,
			ROI:    (s.PreviousPrice - s.CurrentPrice) / s.PreviousPrice,
			Source: retailer,
		})
	}

	return items, nil
}

// Retailers lists the distinct retailers present in the table, in first
// seen order. Each becomes a registered snapshot source at process start.
func (r *PriceHistoryRepository) Retailers(ctx context.Context) ([]string, error) {
	query := `
		SELECT retailer
		FROM price_history
		GROUP BY retailer
		ORDER BY MIN(timestamp) ASC`

	var retailers []string
	if err := r.db.SelectContext(ctx, &retailers, query); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list retailers")
	}

	return retailers, nil
}
