package logx_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dealvoy/pkg/logx"
)

func TestSensitiveDataMaskerMask(t *testing.T) {
	rq := require.New(t)

	masker := logx.NewSensitiveDataMasker()

	testCases := []struct {
		name   string
		input  []byte
		output []byte
	}{
		{
			name:   "Password",
			input:  []byte(`{"hello":"world","password":"abc123"}`),
			output: []byte(`{"hello":"world","password":"[MASKED]"}`),
		},
		{
			name:   "Password capital letter",
			input:  []byte(`{"hello":"world","Password":"abc123"}`),
			output: []byte(`{"hello":"world","Password":"[MASKED]"}`),
		},
		{
			name:   "Access token",
			input:  []byte(`{"accessToken":"eyJhbGciOiJFUzI1NiIsInR5cC","refreshToken":"eyJhbGciOiJFUzI1NiIsInR5cCI6IkpXVCJ9"}`),
			output: []byte(`{"accessToken":"[MASKED]","refreshToken":"[MASKED]"}`),
		},
		{
			name:   "Webhook secret and email",
			input:  []byte(`{"webhook": {"name": "pricing bot", "secret": "s3cret", "email": "ops@example.com"}, "active": true}`),
			output: []byte(`{"webhook": {"name": "pricing bot", "secret": "[MASKED]", "email": "[MASKED]"}, "active": true}`),
		},
		{
			name:   "Signature header in a request dump",
			input:  []byte("POST /hook HTTP/1.1\r\nX-Dealvoy-Signature: sha256=deadbeef\r\nContent-Type: application/json\r\n"),
			output: []byte("POST /hook HTTP/1.1\r\nX-Dealvoy-Signature: [MASKED]\r\nContent-Type: application/json\r\n"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			output := masker.Mask(tc.input)

			rq.Equal(tc.output, output, "%s vs %s", tc.output, output)
		})
	}
}
