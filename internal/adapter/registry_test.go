package adapter

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfRegistration(t *testing.T) {
	assert.Equal(t, []string{"duckdb", "sqlite"}, ListAdapters())
}

func TestIsRegistered(t *testing.T) {
	tests := []struct {
		name     string
		adapter  string
		expected bool
	}{
		{"sqlite registered", "sqlite", true},
		{"duckdb registered", "duckdb", true},
		{"unknown not registered", "postgres", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRegistered(tt.adapter), "IsRegistered(%q)", tt.adapter)
		})
	}
}

func TestNewAdapter(t *testing.T) {
	a, err := NewAdapter(Config{Type: "sqlite"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", a.DialectName())

	_, err = NewAdapter(Config{}, nil)
	require.Error(t, err)

	_, err = NewAdapter(Config{Type: "oracle"}, nil)
	var unknown *UnknownAdapterError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "oracle", unknown.Type)
	assert.Contains(t, unknown.Error(), "engine.type")
	assert.Contains(t, unknown.Error(), "duckdb, sqlite")
}

func TestEngines(t *testing.T) {
	es := Engines()
	require.Len(t, es, 2)
	assert.Equal(t, "duckdb", es[0].Name)
	assert.NotEmpty(t, es[1].Description)

	assert.True(t, IsRegistered("SQLite"))
	assert.Panics(t, func() {
		Register(Engine{Name: "sqlite", New: func(*slog.Logger) Adapter { return nil }})
	})
}
