package security

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/maua/florist-api/configs"
)

const minWebhookKeyLen = 16

// LoadWebhookKey decodes pawapay.webhook_secret (base64url, padding optional).
// An empty secret returns a nil key: signature checks are then disabled.
func LoadWebhookKey(c configs.Config) ([]byte, error) {
	raw := strings.TrimSpace(c.PawaPay.WebhookSecret)
	if raw == "" {
		return nil, nil
	}
	key, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	if err != nil {
		return nil, fmt.Errorf("decode pawapay.webhook_secret: %w", err)
	}
	if len(key) < minWebhookKeyLen {
		return nil, fmt.Errorf("webhook key must be at least %d bytes, got %d", minWebhookKeyLen, len(key))
	}
	return key, nil
}
