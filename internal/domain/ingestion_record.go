package domain

// IngestionRecord is one audit row per handled delivery.
// Corresponds to ingestion_log table in ClickHouse.
type IngestionRecord struct {
	DeliveryID string // sha256 of the raw body
	Path       string // "webhook" | "batch" | "listener"
	Source     Source // batch-wide source for webhook deliveries, empty for mixed batches
	Total      int
	Ingested   int
	Duplicates int
	Failed     int
	ReceivedAt int64 // ms
}
