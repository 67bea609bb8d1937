package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"

	InvalidWebhookID    failure.ErrorCode = "InvalidWebhookID"
	InvalidUPC          failure.ErrorCode = "InvalidUPC"
	InvalidPaging       failure.ErrorCode = "InvalidPaging"
	InvalidExportItem   failure.ErrorCode = "InvalidExportItem"
	InvalidPriceDelta   failure.ErrorCode = "InvalidPriceDelta"
	WebhookNotFound     failure.ErrorCode = "WebhookNotFound"
	WebhookInactive     failure.ErrorCode = "WebhookInactive"
	DeliveryLogNotFound failure.ErrorCode = "DeliveryLogNotFound"
	SourceNotFound      failure.ErrorCode = "SourceNotFound"
	SourceUnavailable   failure.ErrorCode = "SourceUnavailable"
	DuplicateDispatch   failure.ErrorCode = "DuplicateDispatch"
	DeliveryExhausted   failure.ErrorCode = "DeliveryExhausted"
)
