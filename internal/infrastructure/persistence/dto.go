package persistence

import (
	"time"

	"dealvoy/internal/domain/entity"
	"dealvoy/internal/domain/value"
)

// webhookSchema maps a row of the webhooks table.
type webhookSchema struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Endpoint  string    `db:"endpoint"`
	Secret    string    `db:"secret"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

func (s *webhookSchema) toDomain() (*entity.Webhook, error) {
	id, err := value.ParseWebhookID(s.ID)
	if err != nil {
		return nil, err
	}

	return &entity.Webhook{
		ID:        id,
		Name:      s.Name,
		Endpoint:  s.Endpoint,
		Secret:    s.Secret,
		Active:    s.Active,
		CreatedAt: s.CreatedAt,
	}, nil
}

// deliveryLogSchema maps a row of the webhook_logs table.
type deliveryLogSchema struct {
	ID        int64     `db:"id"`
	WebhookID string    `db:"webhook_id"`
	ItemUPC   string    `db:"item_upc"`
	Price     float64   `db:"price"`
	ROI       float64   `db:"roi"`
	Source    string    `db:"source"`
	Status    string    `db:"status"`
	Attempts  int       `db:"attempts"`
	Response  string    `db:"response"`
	Timestamp time.Time `db:"timestamp"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *deliveryLogSchema) toDomain() (*entity.DeliveryLog, error) {
	webhookID, err := value.ParseWebhookID(s.WebhookID)
	if err != nil {
		return nil, err
	}

	return &entity.DeliveryLog{
		ID:        s.ID,
		WebhookID: webhookID,
		ItemUPC:   s.ItemUPC,
		Price:     s.Price,
		ROI:       s.ROI,
		Source:    s.Source,
		Status:    entity.DeliveryStatus(s.Status),
		Attempts:  s.Attempts,
		Response:  s.Response,
		Timestamp: s.Timestamp,
		UpdatedAt: s.UpdatedAt,
	}, nil
}

// priceReadingSchema maps a row of the price_history table.
type priceReadingSchema struct {
	UPC       string    `db:"product_upc"`
	Retailer  string    `db:"retailer"`
	Price     float64   `db:"price"`
	InStock   bool      `db:"in_stock"`
	Timestamp time.Time `db:"timestamp"`
}

// priceMoverSchema maps one paired current/previous reading from the
// movers scan.
type priceMoverSchema struct {
	UPC           string  `db:"product_upc"`
	CurrentPrice  float64 `db:"current_price"`
	PreviousPrice float64 `db:"previous_price"`
}
