package ingestion

import (
	"sort"

	"token-radar/internal/domain"
)

// DefaultGraduationProgramID is the on-chain program that migrates bonding-curve
// tokens to an AMM pool.
const DefaultGraduationProgramID = "39azUYFWPz3VHgKCf3VChUwbpURdCHRxjWVowf5jUJjg"

// ExtractMints returns the unique mints referenced by token transfers across txs.
// The result is sorted so logs are reproducible.
func ExtractMints(txs []Transaction) []string {
	seen := make(map[string]struct{})
	for _, tx := range txs {
		for _, tr := range tx.TokenTransfers {
			if tr.Mint == "" {
				continue
			}
			seen[tr.Mint] = struct{}{}
		}
	}

	mints := make([]string, 0, len(seen))
	for m := range seen {
		mints = append(mints, m)
	}
	sort.Strings(mints)
	return mints
}

// ClassifyBatch returns the source every mint of a webhook delivery is tagged with.
// If any transaction invokes graduationProgramID, directly or through an inner
// instruction, the whole delivery counts as a graduation; co-delivered unrelated
// mints inherit the tag.
func ClassifyBatch(txs []Transaction, graduationProgramID string) domain.Source {
	if graduationProgramID == "" {
		return domain.SourceHeliusWebhook
	}
	for _, tx := range txs {
		if invokes(tx.Instructions, graduationProgramID) {
			return domain.SourcePumpFunGraduated
		}
	}
	return domain.SourceHeliusWebhook
}

func invokes(ixs []Instruction, programID string) bool {
	for _, ix := range ixs {
		if ix.ProgramID == programID || invokes(ix.InnerInstructions, programID) {
			return true
		}
	}
	return false
}
