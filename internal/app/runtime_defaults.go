package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const ticketSecretBytes = 48

// ApplyRuntimeDefaults ensures the ticket signing secret is populated even when no configuration file is supplied.
// It returns a map describing which keys were generated so callers can log the event without exposing values.
// A generated secret lives only as long as the process, so tickets stop resuming after a restart.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if strings.TrimSpace(cfg.Auth.Ticket.Secret) == "" {
		secret, err := generateHexKey(ticketSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate ticket secret: %w", err)
		}
		cfg.Auth.Ticket.Secret = secret
		generated["auth.ticket.secret"] = true
	}

	return generated, nil
}

func generateHexKey(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
