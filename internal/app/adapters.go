package app

import (
	"strings"

	"github.com/ivgeniay/jointpresentation/internal/auth"
	"github.com/ivgeniay/jointpresentation/internal/database"
	"github.com/ivgeniay/jointpresentation/internal/realtime"
	"github.com/ivgeniay/jointpresentation/internal/services"
)

// Connection converts the database section into the options database.Open expects.
func (c DatabaseConfig) Connection() database.Config {
	driver := strings.ToLower(strings.TrimSpace(c.Driver))
	cfg := database.Config{
		Driver: driver,
		Path:   c.Path,
		DSN:    strings.TrimSpace(c.DSN),
	}

	var server DBAuthConfig
	switch driver {
	case "postgres", "postgresql":
		server = c.Postgres
	case "mysql":
		server = c.MySQL
	default:
		return cfg
	}

	cfg.Host = server.Host
	cfg.Port = server.Port
	cfg.Name = server.Database
	cfg.User = server.Username
	cfg.Password = server.Password
	return cfg
}

// Options converts the realtime section into hub options.
func (c RealtimeConfig) Options(allowedOrigins []string) realtime.Options {
	origins := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return realtime.Options{
		SendBuffer:      c.SendBuffer,
		MaxMessageBytes: c.MaxMessageBytes,
		WriteWait:       c.WriteWait,
		PongWait:        c.PongWait,
		AllowedOrigins:  origins,
	}
}

// Limits returns the content limits enforced by the services.
func (c PresentationConfig) Limits() services.Limits {
	limits := services.DefaultLimits
	if c.TitleMaxLength > 0 {
		limits.TitleMaxLength = c.TitleMaxLength
	}
	if c.NicknameMaxLength > 0 {
		limits.NicknameMaxLength = c.NicknameMaxLength
	}
	return limits
}

// TicketConfig converts ticket settings into the auth package configuration.
func (c AuthConfig) TicketConfig() auth.TicketConfig {
	return auth.TicketConfig{
		Secret: strings.TrimSpace(c.Ticket.Secret),
		Issuer: strings.TrimSpace(c.Ticket.Issuer),
		TTL:    c.Ticket.TTL,
	}
}
