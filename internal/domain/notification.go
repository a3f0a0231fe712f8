package domain

// NotificationKind identifies the kind of drift a notification reports.
type NotificationKind string

const (
	KindScoreChange NotificationKind = "score_change"
	KindNewRiskFlag NotificationKind = "new_risk_flag"
)

// String returns the string representation of NotificationKind.
func (k NotificationKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a valid value.
func (k NotificationKind) IsValid() bool {
	return k == KindScoreChange || k == KindNewRiskFlag
}

// Notification is an alert delivered to a wallet's notification center.
// Corresponds to notifications table in PostgreSQL.
type Notification struct {
	ID         string // uuid
	UserWallet string
	Mint       string
	TokenName  *string // nullable
	Kind       NotificationKind
	Message    string
	OldValue   float64
	NewValue   float64
	Read       bool
	CreatedAt  int64 // ms
}
