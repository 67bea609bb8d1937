package server

// Server combines the entity specific HTTP servers. Only the webhook
// surface exists today.
type Server struct {
	WebhookServer
}

func NewServer(
	webhookServer WebhookServer,
) Server {
	return Server{
		WebhookServer: webhookServer,
	}
}
