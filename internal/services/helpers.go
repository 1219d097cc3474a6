package services

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/ivgeniay/jointpresentation/pkg/errors"
	"github.com/ivgeniay/jointpresentation/pkg/validator"
)

// Limits bounds user supplied text.
type Limits struct {
	TitleMaxLength    int
	NicknameMaxLength int
}

// DefaultLimits mirrors the column sizes declared on the models.
var DefaultLimits = Limits{
	TitleMaxLength:    250,
	NicknameMaxLength: 50,
}

func (l Limits) withDefaults() Limits {
	if l.TitleMaxLength <= 0 {
		l.TitleMaxLength = DefaultLimits.TitleMaxLength
	}
	if l.NicknameMaxLength <= 0 {
		l.NicknameMaxLength = DefaultLimits.NicknameMaxLength
	}
	return l
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func normaliseIDs(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// validateText enforces a non-blank value of at most max characters.
func validateText(field, value string, max int) error {
	if err := validator.ValidateVar(field, value, fmt.Sprintf("notblank,max=%d", max)); err != nil {
		return apperrors.NewInvalidArgument(err.Error())
	}
	return nil
}

// validateProperties enforces a non-blank JSON document.
func validateProperties(properties string) error {
	if err := validator.ValidateVar("properties", properties, "notblank,json"); err != nil {
		return apperrors.NewInvalidArgument(err.Error())
	}
	return nil
}
