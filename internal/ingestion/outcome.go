package ingestion

import "token-radar/internal/domain"

// Audit path names.
const (
	PathWebhook  = "webhook"
	PathBatch    = "batch"
	PathListener = "listener"
)

// Status is the final state of one subject in a delivery.
type Status string

const (
	StatusInserted    Status = "inserted"
	StatusDuplicate   Status = "duplicate"
	StatusStoreFailed Status = "store_failed"
)

// Outcome records what happened to one mint.
type Outcome struct {
	Mint   string        `json:"mint"`
	Source domain.Source `json:"source"`
	Status Status        `json:"status"`
	// EnrichFailed marks a soft metadata failure; the subject still proceeds.
	EnrichFailed bool   `json:"enrichFailed,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Result is the tally returned to the caller.
type Result struct {
	DeliveryID string
	Ingested   int
	Total      int
	Outcomes   []Outcome
}

// Duplicates returns the number of mints that were already known.
func (r Result) Duplicates() int {
	return r.count(StatusDuplicate)
}

// Failed returns the number of mints whose store write failed.
func (r Result) Failed() int {
	return r.count(StatusStoreFailed)
}

func (r Result) count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

func newResult(deliveryID string, outcomes []Outcome) Result {
	res := Result{
		DeliveryID: deliveryID,
		Total:      len(outcomes),
		Outcomes:   outcomes,
	}
	res.Ingested = res.count(StatusInserted)
	return res
}
