package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/maxviazov/catalog-service/internal/config"
	"github.com/maxviazov/catalog-service/internal/filter"
)

func TestMapPgError(t *testing.T) {
	other := errors.New("boom")
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, ErrAlreadyExists},
		{"foreign key", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, ErrConflict},
		{"check", &pgconn.PgError{Code: pgerrcode.CheckViolation}, ErrConflict},
		{"read only", fmt.Errorf("exec: %w", &pgconn.PgError{Code: pgerrcode.ReadOnlySQLTransaction}), ErrReadOnly},
		{"passthrough", other, other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapPgError(tc.in)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}

	unmapped := &pgconn.PgError{Code: pgerrcode.SyntaxError}
	assert.Same(t, unmapped, MapPgError(unmapped))
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.PostgresConfig{
		Host: "db", Port: 5432, User: "catalog", Password: "p@ss/word", DBName: "catalog", SSLMode: "disable",
	})
	assert.Equal(t, "postgres://catalog:p%40ss%2Fword@db:5432/catalog?sslmode=disable", dsn)

	assert.Equal(t, "postgres://localhost:5432/catalog", DSN(config.PostgresConfig{Host: "localhost", Port: 5432, DBName: "catalog"}))
}

func TestTraceLevel(t *testing.T) {
	assert.Equal(t, tracelog.LogLevelTrace, traceLevel(zerolog.TraceLevel))
	assert.Equal(t, tracelog.LogLevelDebug, traceLevel(zerolog.DebugLevel))
	assert.Equal(t, tracelog.LogLevelInfo, traceLevel(zerolog.InfoLevel))
	assert.Equal(t, tracelog.LogLevelWarn, traceLevel(zerolog.WarnLevel))
	assert.Equal(t, tracelog.LogLevelError, traceLevel(zerolog.ErrorLevel))
}

func TestPgxLogger(t *testing.T) {
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	buf := &bytes.Buffer{}
	l := newPgxLogger(zerolog.New(buf).Level(zerolog.TraceLevel))

	l.Log(context.Background(), tracelog.LogLevelTrace, "Query", map[string]any{"sql": "select 1", "args": []any{1}, "rowCount": 1})
	out := buf.String()
	assert.Contains(t, out, `"component":"pgx"`)
	assert.Contains(t, out, `"sql":"select 1"`)
	assert.Contains(t, out, `"rowCount":1`)
	assert.Contains(t, out, `"message":"Query"`)

	buf.Reset()
	l.Log(context.Background(), tracelog.LogLevelNone, "ignored", nil)
	assert.Empty(t, buf.String())
}

func TestProductQuery_PriceFiltered(t *testing.T) {
	price := 10.0
	assert.True(t, ProductQuery{Price: &price, Comparison: filter.Greater}.PriceFiltered())
	assert.False(t, ProductQuery{Price: &price, Comparison: filter.None}.PriceFiltered())
	assert.False(t, ProductQuery{Comparison: filter.Less}.PriceFiltered())
}
