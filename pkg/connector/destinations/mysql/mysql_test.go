package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/ajitpratap0/flightsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDSN(t *testing.T) {
	mc, err := ParseDSN("flight:secret@tcp(db.local:3306)/warehouse")
	require.NoError(t, err)

	assert.Equal(t, "db.local:3306", mc.Addr)
	assert.Equal(t, "warehouse", mc.DBName)
	assert.True(t, mc.ParseTime)
	assert.Equal(t, time.UTC, mc.Loc)
}

func TestParseDSN_Invalid(t *testing.T) {
	_, err := ParseDSN("not a dsn")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestOpen_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Open(ctx, "u:p@tcp(127.0.0.1:1)/db?timeout=200ms", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
}
