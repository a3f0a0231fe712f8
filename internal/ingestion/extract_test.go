package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"token-radar/internal/domain"
)

func transfer(mints ...string) Transaction {
	tx := Transaction{}
	for _, m := range mints {
		tx.TokenTransfers = append(tx.TokenTransfers, TokenTransfer{Mint: m})
	}
	return tx
}

func TestExtractMints_Dedup(t *testing.T) {
	txs := []Transaction{
		transfer(mintBONK),
		transfer(mintBONK),
		transfer(mintBONK),
	}

	assert.Equal(t, []string{mintBONK}, ExtractMints(txs))
}

func TestExtractMints_AcrossTransactions(t *testing.T) {
	txs := []Transaction{
		transfer(mintUSDC, mintBONK),
		{Signature: "no-transfers"},
		transfer("", mintWSOL, mintUSDC),
	}

	assert.ElementsMatch(t, []string{mintUSDC, mintBONK, mintWSOL}, ExtractMints(txs))
}

func TestExtractMints_Empty(t *testing.T) {
	assert.Empty(t, ExtractMints(nil))
	assert.Empty(t, ExtractMints([]Transaction{{Signature: "a"}, transfer("")}))
}

func TestClassifyBatch(t *testing.T) {
	other := Instruction{ProgramID: "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"}
	grad := Instruction{ProgramID: DefaultGraduationProgramID}

	t.Run("second of three graduates", func(t *testing.T) {
		txs := []Transaction{
			{Instructions: []Instruction{other}},
			{Instructions: []Instruction{other, grad}},
			{Instructions: []Instruction{other}},
		}
		assert.Equal(t, domain.SourcePumpFunGraduated, ClassifyBatch(txs, DefaultGraduationProgramID))
	})

	t.Run("no match", func(t *testing.T) {
		txs := []Transaction{
			{Instructions: []Instruction{other}},
			{},
			{Instructions: []Instruction{other}},
		}
		assert.Equal(t, domain.SourceHeliusWebhook, ClassifyBatch(txs, DefaultGraduationProgramID))
	})

	t.Run("reached through inner instruction", func(t *testing.T) {
		txs := []Transaction{
			{Instructions: []Instruction{other}},
			{Instructions: []Instruction{{ProgramID: other.ProgramID, InnerInstructions: []Instruction{
				{ProgramID: "ComputeBudget111111111111111111111111111111"},
				{ProgramID: other.ProgramID, InnerInstructions: []Instruction{grad}},
			}}}},
		}
		assert.Equal(t, domain.SourcePumpFunGraduated, ClassifyBatch(txs, DefaultGraduationProgramID))
	})

	t.Run("inner instructions without the program", func(t *testing.T) {
		txs := []Transaction{
			{Instructions: []Instruction{{ProgramID: other.ProgramID, InnerInstructions: []Instruction{other}}}},
		}
		assert.Equal(t, domain.SourceHeliusWebhook, ClassifyBatch(txs, DefaultGraduationProgramID))
	})

	t.Run("custom program id", func(t *testing.T) {
		txs := []Transaction{{Instructions: []Instruction{other}}}
		assert.Equal(t, domain.SourcePumpFunGraduated, ClassifyBatch(txs, other.ProgramID))
	})
}
