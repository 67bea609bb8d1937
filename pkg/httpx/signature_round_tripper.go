package httpx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
)

const headerNameSignature = "X-Dealvoy-Signature"

type contextKeySigningSecret struct{}

// WithSigningSecret attaches the per-endpoint shared secret used by
// SignatureRoundTripper to sign the outgoing request body.
func WithSigningSecret(ctx context.Context, secret string) context.Context {
	return context.WithValue(ctx, contextKeySigningSecret{}, secret)
}

func signingSecretFromContext(ctx context.Context) (string, bool) {
	secret, ok := ctx.Value(contextKeySigningSecret{}).(string)
	return secret, ok && secret != ""
}

// SignatureRoundTripper signs request bodies with HMAC-SHA256 so receivers
// can verify the payload came from us. Requests without a secret in their
// context pass through unsigned.
type SignatureRoundTripper struct {
	next http.RoundTripper
}

func NewSignatureRoundTripper(next http.RoundTripper) SignatureRoundTripper {
	return SignatureRoundTripper{next: next}
}

// RoundTrip implements http.RoundTripper interface.
func (rt SignatureRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	secret, ok := signingSecretFromContext(req.Context())
	if !ok || req.GetBody == nil {
		return rt.next.RoundTrip(req) //nolint:wrapcheck
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("req.GetBody: %w", err)
	}

	payload, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)

	req.Header.Set(headerNameSignature, "sha256="+hex.EncodeToString(mac.Sum(nil)))

	resp, err := rt.next.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("next.RoundTrip: %w", err)
	}

	return resp, nil
}
