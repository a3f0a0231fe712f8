package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"unicode/utf8"

	"github.com/mr-tron/base58"

	"token-radar/internal/domain"
)

const (
	maxNameLength   = 64
	maxSymbolLength = 16
	pubkeyLength    = 32
)

// TokenTransfer is one SPL transfer inside an enhanced webhook transaction.
type TokenTransfer struct {
	Mint            string  `json:"mint"`
	FromUserAccount string  `json:"fromUserAccount,omitempty"`
	ToUserAccount   string  `json:"toUserAccount,omitempty"`
	TokenAmount     float64 `json:"tokenAmount,omitempty"`
}

// Instruction is one instruction inside an enhanced webhook transaction.
type Instruction struct {
	ProgramID         string        `json:"programId"`
	Accounts          []string      `json:"accounts,omitempty"`
	InnerInstructions []Instruction `json:"innerInstructions,omitempty"`
}

// Transaction is the subset of an enhanced webhook transaction we read.
type Transaction struct {
	Signature      string          `json:"signature,omitempty"`
	Timestamp      int64           `json:"timestamp,omitempty"` // unix seconds
	TokenTransfers []TokenTransfer `json:"tokenTransfers,omitempty"`
	Instructions   []Instruction   `json:"instructions,omitempty"`
}

// BatchToken is one token of an internal batch.
type BatchToken struct {
	Mint     string        `json:"mint"`
	Name     *string       `json:"name,omitempty"`
	Symbol   *string       `json:"symbol,omitempty"`
	ImageURL *string       `json:"image_url,omitempty"`
	Source   domain.Source `json:"source"`
}

// Batch is the internal batch payload sent by cron and backfill jobs.
type Batch struct {
	Tokens []BatchToken `json:"tokens"`
}

// PayloadKind tells which ingestion path a payload belongs to.
type PayloadKind int

const (
	PayloadWebhook PayloadKind = iota + 1
	PayloadBatch
)

// String returns the audit path name of the kind.
func (k PayloadKind) String() string {
	switch k {
	case PayloadWebhook:
		return PathWebhook
	case PayloadBatch:
		return PathBatch
	}
	return "unknown"
}

// Payload is a decoded and validated ingestion body.
type Payload struct {
	Kind         PayloadKind
	Transactions []Transaction // PayloadWebhook
	Batch        Batch         // PayloadBatch
}

// ValidationError rejects a whole delivery before any store mutation.
type ValidationError struct {
	Field  string // empty for body-level problems
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid payload: " + e.Reason
	}
	return fmt.Sprintf("invalid payload: %s: %s", e.Field, e.Reason)
}

// DetectKind inspects the first significant byte of body.
// Returns 0 if body is neither a JSON array nor an object.
func DetectKind(body []byte) PayloadKind {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	switch trimmed[0] {
	case '[':
		return PayloadWebhook
	case '{':
		return PayloadBatch
	}
	return 0
}

// Decode parses body into a webhook or batch payload and validates it.
// Any violation rejects the whole body with a *ValidationError.
func Decode(body []byte) (Payload, error) {
	switch DetectKind(body) {
	case PayloadWebhook:
		var txs []Transaction
		if err := json.Unmarshal(body, &txs); err != nil {
			return Payload{}, &ValidationError{Reason: "malformed webhook array: " + err.Error()}
		}
		if err := ValidateTransactions(txs); err != nil {
			return Payload{}, err
		}
		return Payload{Kind: PayloadWebhook, Transactions: txs}, nil

	case PayloadBatch:
		var raw struct {
			Tokens *[]BatchToken `json:"tokens"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return Payload{}, &ValidationError{Reason: "malformed batch object: " + err.Error()}
		}
		if raw.Tokens == nil {
			return Payload{}, &ValidationError{Field: "tokens", Reason: "required"}
		}
		batch := Batch{Tokens: *raw.Tokens}
		if err := ValidateBatch(batch); err != nil {
			return Payload{}, err
		}
		return Payload{Kind: PayloadBatch, Batch: batch}, nil
	}

	return Payload{}, &ValidationError{Reason: "body must be a JSON array or object"}
}

// ValidateTransactions checks every non-empty transfer mint.
func ValidateTransactions(txs []Transaction) error {
	for i, tx := range txs {
		for j, tr := range tx.TokenTransfers {
			if tr.Mint == "" {
				continue
			}
			if err := validateMint(tr.Mint); err != nil {
				return &ValidationError{
					Field:  fmt.Sprintf("[%d].tokenTransfers[%d].mint", i, j),
					Reason: err.Error(),
				}
			}
		}
	}
	return nil
}

// ValidateBatch checks every token of an internal batch.
func ValidateBatch(b Batch) error {
	for i, tok := range b.Tokens {
		field := func(name string) string { return fmt.Sprintf("tokens[%d].%s", i, name) }

		if tok.Mint == "" {
			return &ValidationError{Field: field("mint"), Reason: "required"}
		}
		if err := validateMint(tok.Mint); err != nil {
			return &ValidationError{Field: field("mint"), Reason: err.Error()}
		}
		if !tok.Source.IsValid() {
			return &ValidationError{Field: field("source"), Reason: fmt.Sprintf("unknown source %q", tok.Source)}
		}
		if tok.Name != nil && utf8.RuneCountInString(*tok.Name) > maxNameLength {
			return &ValidationError{Field: field("name"), Reason: fmt.Sprintf("longer than %d characters", maxNameLength)}
		}
		if tok.Symbol != nil && utf8.RuneCountInString(*tok.Symbol) > maxSymbolLength {
			return &ValidationError{Field: field("symbol"), Reason: fmt.Sprintf("longer than %d characters", maxSymbolLength)}
		}
		if tok.ImageURL != nil && *tok.ImageURL != "" && !isHTTPURL(*tok.ImageURL) {
			return &ValidationError{Field: field("image_url"), Reason: "must be an http(s) URL"}
		}
	}
	return nil
}

func validateMint(mint string) error {
	decoded, err := base58.Decode(mint)
	if err != nil {
		return fmt.Errorf("not valid base58")
	}
	if len(decoded) != pubkeyLength {
		return fmt.Errorf("decodes to %d bytes, want %d", len(decoded), pubkeyLength)
	}
	return nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
