package server

import (
	"git.appkode.ru/pub/go/failure"

	"dealvoy/internal/domain"
	"dealvoy/pkg/errcodes"
)

// mapDomainError lifts repository and service errors into the failure
// taxonomy so reply.Error picks the right HTTP status.
func mapDomainError(err error) error {
	if err == nil {
		return nil
	}

	code, ok := domain.GetCode(err)
	if !ok {
		return err
	}

	switch code {
	case errcodes.WebhookNotFound, errcodes.DeliveryLogNotFound, errcodes.SourceNotFound:
		return failure.NewNotFoundErrorFromError(err, failure.WithCode(code))
	case errcodes.WebhookInactive, errcodes.InvalidWebhookID, errcodes.InvalidUPC:
		return failure.NewInvalidArgumentErrorFromError(err, failure.WithCode(code))
	default:
		return err
	}
}
