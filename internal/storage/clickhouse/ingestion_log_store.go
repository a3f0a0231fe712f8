package clickhouse

import (
	"context"
	"fmt"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// IngestionLogStore implements storage.IngestionLogStore using ClickHouse.
// The table is append-only; redelivered payloads produce additional rows
// under the same delivery_id.
type IngestionLogStore struct {
	conn *Conn
}

// NewIngestionLogStore creates a new IngestionLogStore.
func NewIngestionLogStore(conn *Conn) *IngestionLogStore {
	return &IngestionLogStore{conn: conn}
}

// Compile-time interface check.
var _ storage.IngestionLogStore = (*IngestionLogStore)(nil)

// Append adds one delivery record.
func (s *IngestionLogStore) Append(ctx context.Context, r *domain.IngestionRecord) error {
	if r == nil || r.DeliveryID == "" {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO ingestion_log (
			delivery_id, path, source, total, ingested, duplicates, failed, received_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		r.DeliveryID,
		r.Path,
		string(r.Source),
		uint32(r.Total),
		uint32(r.Ingested),
		uint32(r.Duplicates),
		uint32(r.Failed),
		r.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByDeliveryID returns every record for a delivery, oldest first.
func (s *IngestionLogStore) GetByDeliveryID(ctx context.Context, deliveryID string) ([]*domain.IngestionRecord, error) {
	query := `
		SELECT delivery_id, path, source, total, ingested, duplicates, failed, received_at
		FROM ingestion_log
		WHERE delivery_id = ?
		ORDER BY received_at ASC
	`

	rows, err := s.conn.Query(ctx, query, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("query ingestion log: %w", err)
	}
	defer rows.Close()

	var records []*domain.IngestionRecord
	for rows.Next() {
		var r domain.IngestionRecord
		var source string
		var total, ingested, duplicates, failed uint32

		err := rows.Scan(
			&r.DeliveryID,
			&r.Path,
			&source,
			&total,
			&ingested,
			&duplicates,
			&failed,
			&r.ReceivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ingestion log row: %w", err)
		}

		r.Source = domain.Source(source)
		r.Total = int(total)
		r.Ingested = int(ingested)
		r.Duplicates = int(duplicates)
		r.Failed = int(failed)
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingestion log rows: %w", err)
	}
	return records, nil
}
