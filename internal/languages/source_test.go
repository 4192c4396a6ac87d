package languages

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidschrooten/solr-schema-sync/config"
)

func TestStatic_Languages(t *testing.T) {
	codes := []string{"en", "de"}
	src := NewStatic(codes)
	codes[0] = "changed"

	got, err := src.Languages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "de"}, got)

	got[1] = "changed"
	again, _ := src.Languages(context.Background())
	assert.Equal(t, "de", again[1])
	assert.NoError(t, src.Close())
}

func TestNormalize(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	got := Normalize([]string{" en ", "", "de", "   ", "en", "not a tag!"}, logger)

	assert.Equal(t, []string{"en", "de", "en", "not a tag!"}, got)
	assert.Equal(t, 1, strings.Count(buf.String(), "not a recognised"))
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil, zerolog.Nop()))
}

func TestOpen(t *testing.T) {
	src, err := Open(context.Background(), config.LanguagesConfig{Source: "static", Codes: []string{"fr"}})
	require.NoError(t, err)
	got, err := src.Languages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"fr"}, got)

	_, err = Open(context.Background(), config.LanguagesConfig{Source: "ldap"})
	assert.Error(t, err)

	_, err = Open(context.Background(), config.LanguagesConfig{Source: "postgres", Postgres: config.PostgresLanguageConfig{DSN: "postgres://localhost:notaport/db"}})
	assert.Error(t, err)
}
