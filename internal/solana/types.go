package solana

import "encoding/json"

// TokenBalance is one SPL token balance entry from transaction meta.
type TokenBalance struct {
	AccountIndex int    `json:"accountIndex"`
	Mint         string `json:"mint"`
	Owner        string `json:"owner"`
}

// Instruction is a (possibly parsed) instruction reduced to what callers use.
type Instruction struct {
	ProgramID string   `json:"programId"`
	Accounts  []string `json:"accounts,omitempty"`
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

// Asset is the subset of a DAS getAsset response used for token metadata.
type Asset struct {
	ID        string
	Interface string
	Name      string
	Symbol    string
	Image     string
	JSONURI   string
	Raw       json.RawMessage // full result as returned by the node
}
