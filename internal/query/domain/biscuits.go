package domain

import (
	"fmt"
	"log/slog"
)

// TokenProvider is anything that can produce a biscuit token, such as a built biscuit.
type TokenProvider interface {
	Token() (string, error)
}

// FlattenBiscuits collects tokens from strings, TokenProviders and arbitrarily nested
// slices of either, in order. Empty strings are skipped. Values of any other type are
// ignored with a warning.
func FlattenBiscuits(logger *slog.Logger, values ...any) ([]string, error) {
	out := []string{}
	for _, v := range values {
		tokens, err := flatten(logger, v)
		if err != nil {
			return nil, err
		}
		out = append(out, tokens...)
	}
	return out, nil
}

func flatten(logger *slog.Logger, value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []string:
		return FlattenBiscuits(logger, toAny(v)...)
	case TokenProvider:
		token, err := v.Token()
		if err != nil {
			return nil, fmt.Errorf("biscuit token: %w", err)
		}
		return flatten(logger, token)
	case []TokenProvider:
		return FlattenBiscuits(logger, toAny(v)...)
	case []any:
		return FlattenBiscuits(logger, v...)
	default:
		if logger != nil {
			logger.Warn("ignoring biscuit of unexpected type", slog.String("type", fmt.Sprintf("%T", value)))
		}
		return nil, nil
	}
}

func toAny[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
