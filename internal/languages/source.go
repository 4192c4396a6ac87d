// Package languages supplies the language codes configured in the host.
package languages

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/davidschrooten/solr-schema-sync/config"
)

// Source lists configured language codes
type Source interface {
	Languages(ctx context.Context) ([]string, error)
	Close() error
}

// Static serves a fixed list
type Static struct {
	codes []string
}

// NewStatic creates a source over a fixed list of codes
func NewStatic(codes []string) *Static {
	return &Static{codes: append([]string(nil), codes...)}
}

// Languages returns the configured codes
func (s *Static) Languages(ctx context.Context) ([]string, error) {
	return append([]string(nil), s.codes...), nil
}

// Close is a no-op
func (s *Static) Close() error {
	return nil
}

// Normalize trims codes and drops empty ones, keeping order and duplicates.
// Codes that are not BCP 47 are kept, since a schema may still carry an analyzer
// type for them, but are reported.
func Normalize(codes []string, logger zerolog.Logger) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, err := language.Parse(code); err != nil {
			logger.Warn().Str("code", code).Err(err).Msg("Language code is not a recognised BCP 47 tag")
		}
		out = append(out, code)
	}
	return out
}

// Open builds the source selected in configuration
func Open(ctx context.Context, cfg config.LanguagesConfig) (Source, error) {
	switch cfg.Source {
	case "", "static":
		return NewStatic(cfg.Codes), nil
	case "mongodb":
		return NewMongo(ctx, cfg.MongoDB)
	case "postgres":
		return NewPostgres(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown language source %q", cfg.Source)
	}
}
