package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-radar/internal/domain"
	"token-radar/internal/idhash"
	"token-radar/internal/ingestion/stub"
	"token-radar/internal/publish"
	"token-radar/internal/storage/memory"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type gatewayFixture struct {
	gw        *Gateway
	store     *memory.TokenEventStore
	provider  *stub.MetadataProvider
	publisher *publish.MemoryPublisher
	audit     *memory.IngestionLogStore
}

func newFixture(t *testing.T, mutate func(*GatewayOptions)) *gatewayFixture {
	t.Helper()

	f := &gatewayFixture{
		store: memory.NewTokenEventStore(),
		provider: stub.NewMetadataProvider(map[string]*domain.Metadata{
			mintBONK: {Name: strPtr("Bonk"), Symbol: strPtr("BONK"), Image: strPtr("https://img/bonk.png"), Raw: json.RawMessage(`{"source":"das"}`)},
			mintUSDC: {Name: strPtr("USD Coin"), Symbol: strPtr("USDC")},
		}),
		publisher: &publish.MemoryPublisher{},
		audit:     memory.NewIngestionLogStore(),
	}

	opts := GatewayOptions{
		Store:          f.store,
		Provider:       f.provider,
		Publisher:      f.publisher,
		AuditLog:       f.audit,
		WebhookSecret:  "hook-secret",
		InternalSecret: "internal-secret",
		Now:            func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&opts)
	}

	gw, err := NewGateway(opts)
	require.NoError(t, err)
	f.gw = gw
	return f
}

func strPtr(s string) *string { return &s }

func webhookBody(t *testing.T, txs []Transaction) []byte {
	t.Helper()
	body, err := json.Marshal(txs)
	require.NoError(t, err)
	return body
}

func TestNewGateway_RequiresStore(t *testing.T) {
	_, err := NewGateway(GatewayOptions{})
	assert.Error(t, err)
}

func TestGateway_WebhookIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	body := webhookBody(t, []Transaction{transfer(mintBONK)})

	first, err := f.gw.Ingest(ctx, "hook-secret", body)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Ingested)
	assert.Equal(t, 1, first.Total)

	second, err := f.gw.Ingest(ctx, "hook-secret", body)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Ingested)
	assert.Equal(t, 1, second.Total)
	assert.Equal(t, StatusDuplicate, second.Outcomes[0].Status)

	assert.Equal(t, 1, f.store.Count())
	assert.Equal(t, 1, f.provider.Calls(mintBONK), "known mint must not be enriched again")
	assert.Len(t, f.publisher.Requests(), 1)
}

func TestGateway_BatchThenWebhookSameMint(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res, err := f.gw.HandleBatch(ctx, "Bearer internal-secret", Batch{Tokens: []BatchToken{
		{Mint: mintUSDC, Name: strPtr("USD Coin"), Source: domain.SourceJupiter},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Ingested)

	res, err = f.gw.HandleWebhook(ctx, "hook-secret", []Transaction{transfer(mintUSDC)})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Ingested)

	ev, err := f.store.GetByMint(ctx, mintUSDC)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceJupiter, ev.Source, "first sighting wins")
}

func TestGateway_RedeliveryKeepsAnalysis(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	body := webhookBody(t, []Transaction{transfer(mintBONK)})

	_, err := f.gw.Ingest(ctx, "hook-secret", body)
	require.NoError(t, err)

	tier := "tier_1"
	require.NoError(t, f.store.MarkAnalyzed(ctx, mintBONK, 82, &tier))

	_, err = f.gw.Ingest(ctx, "hook-secret", body)
	require.NoError(t, err)

	ev, err := f.store.GetByMint(ctx, mintBONK)
	require.NoError(t, err)
	assert.True(t, ev.Analyzed)
	assert.Equal(t, 82.0, ev.TrustRating)
	require.NotNil(t, ev.DeployerTier)
	assert.Equal(t, "tier_1", *ev.DeployerTier)
}

func TestGateway_WebhookDedupAndDefaults(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res, err := f.gw.HandleWebhook(ctx, "hook-secret", []Transaction{
		transfer(mintBONK), transfer(mintBONK), transfer(mintBONK),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Ingested)

	ev, err := f.store.GetByMint(ctx, mintBONK)
	require.NoError(t, err)
	assert.False(t, ev.Analyzed)
	assert.Equal(t, domain.DefaultTrustRating, ev.TrustRating)
	assert.Nil(t, ev.DeployerTier)
	assert.Equal(t, fixedNow.UnixMilli(), ev.CreatedAt)
	require.NotNil(t, ev.Name)
	assert.Equal(t, "Bonk", *ev.Name)
	require.NotNil(t, ev.ImageURL)
	assert.Equal(t, "https://img/bonk.png", *ev.ImageURL)
	assert.JSONEq(t, `{"source":"das"}`, string(ev.RawMetadata))
}

func TestGateway_GraduationTagging(t *testing.T) {
	other := Instruction{ProgramID: "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"}
	grad := Instruction{ProgramID: DefaultGraduationProgramID}

	tests := []struct {
		name string
		txs  []Transaction
		want domain.Source
	}{
		{
			name: "graduation in second of three",
			txs: []Transaction{
				{TokenTransfers: []TokenTransfer{{Mint: mintBONK}}, Instructions: []Instruction{other}},
				{TokenTransfers: []TokenTransfer{{Mint: mintUSDC}}, Instructions: []Instruction{grad}},
				{TokenTransfers: []TokenTransfer{{Mint: mintWSOL}}, Instructions: []Instruction{other}},
			},
			want: domain.SourcePumpFunGraduated,
		},
		{
			name: "no graduation",
			txs: []Transaction{
				{TokenTransfers: []TokenTransfer{{Mint: mintBONK}}, Instructions: []Instruction{other}},
				{TokenTransfers: []TokenTransfer{{Mint: mintUSDC}}},
				{TokenTransfers: []TokenTransfer{{Mint: mintWSOL}}, Instructions: []Instruction{other}},
			},
			want: domain.SourceHeliusWebhook,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			ctx := context.Background()

			res, err := f.gw.HandleWebhook(ctx, "hook-secret", tt.txs)
			require.NoError(t, err)
			assert.Equal(t, 3, res.Ingested)

			for _, mint := range []string{mintBONK, mintUSDC, mintWSOL} {
				ev, err := f.store.GetByMint(ctx, mint)
				require.NoError(t, err)
				assert.Equal(t, tt.want, ev.Source, mint)
			}
		})
	}
}

func TestGateway_AuthFailureLeavesNoRows(t *testing.T) {
	tests := []struct {
		name   string
		header string
		body   string
	}{
		{"webhook missing header", "", `[{"tokenTransfers":[{"mint":"` + mintBONK + `"}]}]`},
		{"webhook wrong secret", "nope", `[{"tokenTransfers":[{"mint":"` + mintBONK + `"}]}]`},
		{"batch plain secret", "internal-secret", `{"tokens":[{"mint":"` + mintBONK + `","source":"jupiter"}]}`},
		{"batch wrong bearer", "Bearer hook-secret", `{"tokens":[{"mint":"` + mintBONK + `","source":"jupiter"}]}`},
		{"batch invalid and unauthorized", "", `{"tokens":[{"mint":"bad","source":"x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			_, err := f.gw.Ingest(context.Background(), tt.header, []byte(tt.body))
			assert.ErrorIs(t, err, ErrUnauthorized)
			assert.Equal(t, 0, f.store.Count())
			assert.Equal(t, 0, f.provider.TotalCalls())
			assert.Empty(t, f.publisher.Requests())

			recs, err := f.audit.GetByDeliveryID(context.Background(), idhash.ComputeDeliveryID([]byte(tt.body)))
			require.NoError(t, err)
			assert.Empty(t, recs)
		})
	}
}

func TestGateway_OpenWhenNoSecrets(t *testing.T) {
	f := newFixture(t, func(o *GatewayOptions) {
		o.WebhookSecret = ""
		o.InternalSecret = ""
	})
	ctx := context.Background()

	res, err := f.gw.Ingest(ctx, "", webhookBody(t, []Transaction{transfer(mintBONK)}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Ingested)

	res, err = f.gw.Ingest(ctx, "", []byte(`{"tokens":[{"mint":"`+mintUSDC+`","source":"dexscreener"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Ingested)
}

func TestGateway_ValidationRejectsWholeBatch(t *testing.T) {
	f := newFixture(t, nil)
	body := `{"tokens":[
		{"mint":"` + mintUSDC + `","source":"jupiter"},
		{"mint":"` + mintBONK + `","source":"unknown"}
	]}`

	_, err := f.gw.Ingest(context.Background(), "Bearer internal-secret", []byte(body))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tokens[1].source", verr.Field)
	assert.Equal(t, 0, f.store.Count())
}

func TestGateway_BatchEnrichesOnlyNamelessTokens(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res, err := f.gw.HandleBatch(ctx, "Bearer internal-secret", Batch{Tokens: []BatchToken{
		{Mint: mintUSDC, Symbol: strPtr("USDC"), Source: domain.SourceJupiter},
		{Mint: mintBONK, Source: domain.SourceDexScreener},
		{Mint: mintBONK, Source: domain.SourceJupiter},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total, "repeated mint counted once")
	assert.Equal(t, 2, res.Ingested)

	assert.Equal(t, 0, f.provider.Calls(mintUSDC))
	assert.Equal(t, 1, f.provider.Calls(mintBONK))

	usdc, err := f.store.GetByMint(ctx, mintUSDC)
	require.NoError(t, err)
	assert.Nil(t, usdc.Name)
	require.NotNil(t, usdc.Symbol)
	assert.Equal(t, "USDC", *usdc.Symbol)

	bonk, err := f.store.GetByMint(ctx, mintBONK)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceDexScreener, bonk.Source)
}

func TestGateway_EnrichmentKeepsSuppliedImage(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.gw.HandleBatch(ctx, "Bearer internal-secret", Batch{Tokens: []BatchToken{
		{Mint: mintUSDC, ImageURL: strPtr("https://cdn.example.com/usdc.png"), Source: domain.SourceJupiter},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, f.provider.Calls(mintUSDC))

	usdc, err := f.store.GetByMint(ctx, mintUSDC)
	require.NoError(t, err)
	require.NotNil(t, usdc.Name)
	assert.Equal(t, "USD Coin", *usdc.Name)
	require.NotNil(t, usdc.ImageURL, "provider without an image leaves the supplied one")
	assert.Equal(t, "https://cdn.example.com/usdc.png", *usdc.ImageURL)
}

func TestGateway_EnrichmentSoftFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.provider.FailFor(mintBONK, errors.New("provider down"))
	ctx := context.Background()

	res, err := f.gw.HandleWebhook(ctx, "hook-secret", []Transaction{transfer(mintBONK, mintUSDC, mintWSOL)})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Ingested)

	byMint := make(map[string]Outcome)
	for _, o := range res.Outcomes {
		byMint[o.Mint] = o
	}
	assert.True(t, byMint[mintBONK].EnrichFailed)
	assert.Contains(t, byMint[mintBONK].Reason, "provider down")
	assert.True(t, byMint[mintWSOL].EnrichFailed, "provider miss is a soft failure")
	assert.False(t, byMint[mintUSDC].EnrichFailed)

	bonk, err := f.store.GetByMint(ctx, mintBONK)
	require.NoError(t, err)
	assert.Nil(t, bonk.Name)
	assert.Nil(t, bonk.Symbol)
}

func TestGateway_EnrichmentTimeout(t *testing.T) {
	f := newFixture(t, func(o *GatewayOptions) {
		o.UpstreamTimeout = 20 * time.Millisecond
	})
	f.provider.WithDelay(time.Second)

	start := time.Now()
	res, err := f.gw.HandleWebhook(context.Background(), "hook-secret", []Transaction{transfer(mintBONK, mintUSDC)})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 2, res.Ingested)
	for _, o := range res.Outcomes {
		assert.True(t, o.EnrichFailed)
	}
}

type failingStore struct {
	*memory.TokenEventStore
	failMint string
}

func (s *failingStore) InsertIfAbsent(ctx context.Context, e *domain.TokenEvent) (bool, error) {
	if e.Mint == s.failMint {
		return false, errors.New("connection reset")
	}
	return s.TokenEventStore.InsertIfAbsent(ctx, e)
}

func TestGateway_StoreFailureIsolated(t *testing.T) {
	store := &failingStore{TokenEventStore: memory.NewTokenEventStore(), failMint: mintUSDC}
	f := newFixture(t, func(o *GatewayOptions) { o.Store = store })

	res, err := f.gw.HandleWebhook(context.Background(), "hook-secret", []Transaction{transfer(mintBONK, mintUSDC, mintWSOL)})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Ingested)
	assert.Equal(t, 1, res.Failed())
	assert.Equal(t, 2, store.Count())

	for _, o := range res.Outcomes {
		if o.Mint == mintUSDC {
			assert.Equal(t, StatusStoreFailed, o.Status)
			assert.Contains(t, o.Reason, "connection reset")
		}
	}
	assert.Len(t, f.publisher.Requests(), 2)
}

func TestGateway_PublishFailureIsSoft(t *testing.T) {
	f := newFixture(t, nil)
	f.publisher.Err = errors.New("broker unavailable")

	res, err := f.gw.HandleWebhook(context.Background(), "hook-secret", []Transaction{transfer(mintBONK)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Ingested)
}

func TestGateway_PublishesAnalysisRequests(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.gw.HandleWebhook(context.Background(), "hook-secret", []Transaction{
		{TokenTransfers: []TokenTransfer{{Mint: mintBONK}}, Instructions: []Instruction{{ProgramID: DefaultGraduationProgramID}}},
	})
	require.NoError(t, err)

	reqs := f.publisher.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, mintBONK, reqs[0].Mint)
	assert.Equal(t, domain.SourcePumpFunGraduated, reqs[0].Source)
	assert.Equal(t, fixedNow.UnixMilli(), reqs[0].RequestedAt)
}

func TestGateway_AuditLog(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	body := webhookBody(t, []Transaction{transfer(mintBONK, mintUSDC)})
	deliveryID := idhash.ComputeDeliveryID(body)

	res, err := f.gw.Ingest(ctx, "Bearer hook-secret", body)
	require.NoError(t, err)
	assert.Equal(t, deliveryID, res.DeliveryID)

	_, err = f.gw.Ingest(ctx, "hook-secret", body)
	require.NoError(t, err)

	recs, err := f.audit.GetByDeliveryID(ctx, deliveryID)
	require.NoError(t, err)
	require.Len(t, recs, 2, "redelivery is visible in the audit log")

	assert.Equal(t, PathWebhook, recs[0].Path)
	assert.Equal(t, domain.SourceHeliusWebhook, recs[0].Source)
	assert.Equal(t, 2, recs[0].Total)
	assert.Equal(t, 2, recs[0].Ingested)
	assert.Equal(t, 0, recs[1].Ingested)
	assert.Equal(t, 2, recs[1].Duplicates)
	assert.Equal(t, fixedNow.UnixMilli(), recs[0].ReceivedAt)
}

func TestGateway_ZeroMints(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.gw.Ingest(context.Background(), "hook-secret", []byte(`[{"signature":"a"},{"tokenTransfers":[]}]`))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 0, res.Ingested)
	assert.Equal(t, 0, f.store.Count())
}

func TestGateway_HandleListener(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.gw.HandleListener(context.Background(), []Transaction{
		{TokenTransfers: []TokenTransfer{{Mint: mintBONK}}, Instructions: []Instruction{{ProgramID: DefaultGraduationProgramID}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Ingested)

	recs, err := f.audit.GetByDeliveryID(context.Background(), res.DeliveryID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, PathListener, recs[0].Path)
}
