package solana

import "context"

// RPCClient defines the Solana JSON-RPC calls the service depends on.
type RPCClient interface {
	// GetTransaction retrieves a parsed transaction by signature.
	// Returns nil, nil if the transaction is unknown to the node.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetAccountInfo retrieves raw account data. Returns nil, nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetAsset retrieves a DAS asset by id. Returns nil, nil on an empty result.
	GetAsset(ctx context.Context, id string) (*Asset, error)
}

// Transaction represents a confirmed Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err               interface{}
	LogMessages       []string
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
	InnerInstructions []Instruction // flattened across all outer instructions
}

// TransactionMessage contains the parsed transaction message.
type TransactionMessage struct {
	AccountKeys  []string
	Instructions []Instruction
}

// Failed reports whether the transaction executed with an error.
func (t *Transaction) Failed() bool {
	return t.Meta != nil && t.Meta.Err != nil
}

// ProgramIDs returns every program invoked by the transaction, outer
// instructions first, inner instructions after.
func (t *Transaction) ProgramIDs() []string {
	var ids []string
	if t.Message != nil {
		for _, ix := range t.Message.Instructions {
			ids = append(ids, ix.ProgramID)
		}
	}
	if t.Meta != nil {
		for _, ix := range t.Meta.InnerInstructions {
			ids = append(ids, ix.ProgramID)
		}
	}
	return ids
}

// TokenMints returns the distinct mints whose balances the transaction touched,
// in first-seen order.
func (t *Transaction) TokenMints() []string {
	if t.Meta == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var mints []string
	for _, balances := range [][]TokenBalance{t.Meta.PreTokenBalances, t.Meta.PostTokenBalances} {
		for _, b := range balances {
			if b.Mint == "" {
				continue
			}
			if _, ok := seen[b.Mint]; ok {
				continue
			}
			seen[b.Mint] = struct{}{}
			mints = append(mints, b.Mint)
		}
	}
	return mints
}
