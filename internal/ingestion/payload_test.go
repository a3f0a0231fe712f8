package ingestion

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-radar/internal/domain"
)

const (
	mintWSOL = "So11111111111111111111111111111111111111112"
	mintUSDC = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	mintUSDT = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	mintBONK = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
)

func TestDecode_Webhook(t *testing.T) {
	body := `[
		{"signature":"sig1","timestamp":1700000000,
		 "tokenTransfers":[{"mint":"` + mintBONK + `"},{"mint":""}],
		 "instructions":[{"programId":"` + DefaultGraduationProgramID + `","innerInstructions":[{"programId":"x"}]}]},
		{"signature":"sig2"}
	]`

	p, err := Decode([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, PayloadWebhook, p.Kind)
	require.Len(t, p.Transactions, 2)
	assert.Equal(t, mintBONK, p.Transactions[0].TokenTransfers[0].Mint)
	assert.Equal(t, DefaultGraduationProgramID, p.Transactions[0].Instructions[0].ProgramID)
	assert.Len(t, p.Transactions[0].Instructions[0].InnerInstructions, 1)
	assert.Empty(t, p.Transactions[1].TokenTransfers)
}

func TestDecode_Batch(t *testing.T) {
	body := `{"tokens":[
		{"mint":"` + mintUSDC + `","name":"USD Coin","symbol":"USDC","image_url":"https://example.com/usdc.png","source":"jupiter"},
		{"mint":"` + mintBONK + `","source":"dexscreener"}
	]}`

	p, err := Decode([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, PayloadBatch, p.Kind)
	require.Len(t, p.Batch.Tokens, 2)
	assert.Equal(t, domain.SourceJupiter, p.Batch.Tokens[0].Source)
	require.NotNil(t, p.Batch.Tokens[0].ImageURL)
	assert.Equal(t, "https://example.com/usdc.png", *p.Batch.Tokens[0].ImageURL)
	assert.Nil(t, p.Batch.Tokens[1].Name)
}

func TestDecode_EmptyBatchIsValid(t *testing.T) {
	p, err := Decode([]byte(`{"tokens":[]}`))
	require.NoError(t, err)
	assert.Equal(t, PayloadBatch, p.Kind)
	assert.Empty(t, p.Batch.Tokens)
}

func TestDecode_Rejects(t *testing.T) {
	long := strings.Repeat("n", maxNameLength+1)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "empty body", body: ``},
		{name: "scalar", body: `42`},
		{name: "broken array", body: `[{"tokenTransfers":`},
		{name: "object without tokens", body: `{"items":[]}`, field: "tokens"},
		{name: "tokens not a list", body: `{"tokens":"x"}`},
		{name: "empty mint", body: `{"tokens":[{"mint":"","source":"jupiter"}]}`, field: "tokens[0].mint"},
		{name: "mint not base58", body: `{"tokens":[{"mint":"0OIl","source":"jupiter"}]}`, field: "tokens[0].mint"},
		{name: "mint wrong length", body: `{"tokens":[{"mint":"abc","source":"jupiter"}]}`, field: "tokens[0].mint"},
		{name: "unknown source", body: `{"tokens":[{"mint":"` + mintUSDC + `","source":"coingecko"}]}`, field: "tokens[0].source"},
		{name: "missing source", body: `{"tokens":[{"mint":"` + mintUSDC + `"}]}`, field: "tokens[0].source"},
		{name: "name too long", body: `{"tokens":[{"mint":"` + mintUSDC + `","source":"jupiter","name":"` + long + `"}]}`, field: "tokens[0].name"},
		{name: "symbol too long", body: `{"tokens":[{"mint":"` + mintUSDC + `","source":"jupiter","symbol":"ABCDEFGHIJKLMNOPQ"}]}`, field: "tokens[0].symbol"},
		{name: "image not http", body: `{"tokens":[{"mint":"` + mintUSDC + `","source":"jupiter","image_url":"ftp://x/y.png"}]}`, field: "tokens[0].image_url"},
		{name: "second token invalid", body: `{"tokens":[{"mint":"` + mintUSDC + `","source":"jupiter"},{"mint":"bad","source":"jupiter"}]}`, field: "tokens[1].mint"},
		{name: "webhook bad mint", body: `[{"tokenTransfers":[{"mint":"not-a-mint"}]}]`, field: "[0].tokenTransfers[0].mint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body))
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "want *ValidationError, got %T", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestDecode_NameLengthCountsRunes(t *testing.T) {
	name := strings.Repeat("ü", maxNameLength)
	body := `{"tokens":[{"mint":"` + mintUSDC + `","source":"jupiter","name":"` + name + `"}]}`

	_, err := Decode([]byte(body))
	assert.NoError(t, err)
}

func TestDetectKind(t *testing.T) {
	assert.Equal(t, PayloadWebhook, DetectKind([]byte("  \n[]")))
	assert.Equal(t, PayloadBatch, DetectKind([]byte("\t{}")))
	assert.Equal(t, PayloadKind(0), DetectKind([]byte("null")))
	assert.Equal(t, PayloadKind(0), DetectKind(nil))
}
