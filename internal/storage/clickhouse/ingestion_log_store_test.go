package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

func TestIngestionLogStore_AppendAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewIngestionLogStore(conn)
	ctx := context.Background()

	first := &domain.IngestionRecord{
		DeliveryID: "abc123",
		Path:       "webhook",
		Source:     domain.SourcePumpFunGraduated,
		Total:      3,
		Ingested:   2,
		Duplicates: 1,
		ReceivedAt: 1000,
	}
	redelivery := &domain.IngestionRecord{
		DeliveryID: "abc123",
		Path:       "webhook",
		Source:     domain.SourcePumpFunGraduated,
		Total:      3,
		Duplicates: 3,
		ReceivedAt: 2000,
	}
	other := &domain.IngestionRecord{
		DeliveryID: "def456",
		Path:       "batch",
		Total:      1,
		Failed:     1,
		ReceivedAt: 1500,
	}

	for _, r := range []*domain.IngestionRecord{first, redelivery, other} {
		require.NoError(t, store.Append(ctx, r))
	}

	records, err := store.GetByDeliveryID(ctx, "abc123")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, int64(1000), records[0].ReceivedAt)
	assert.Equal(t, 2, records[0].Ingested)
	assert.Equal(t, domain.SourcePumpFunGraduated, records[0].Source)
	assert.Equal(t, 3, records[1].Duplicates)

	none, err := store.GetByDeliveryID(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIngestionLogStore_InvalidInput(t *testing.T) {
	store := NewIngestionLogStore(nil)

	err := store.Append(context.Background(), &domain.IngestionRecord{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
