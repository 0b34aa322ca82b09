package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPostgresStore_RejectsMalformedDSN(t *testing.T) {
	_, err := NewPostgresStore(context.Background(), "not-a-postgres-url")
	require.Error(t, err)
}

func TestPostgresSchema_DefinesEnsRecordsTable(t *testing.T) {
	require.True(t, strings.Contains(postgresSchema, "ens_records"))
	require.True(t, strings.Contains(postgresSchema, "record_type"))
}
