package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"token-radar/internal/config"
	"token-radar/internal/storage/memory"
)

func TestInitAuditLog_DisabledWithoutDSN(t *testing.T) {
	a := &app{cfg: &config.Config{}, logger: zap.NewNop()}

	require.NoError(t, a.initAuditLog(context.Background()))
	assert.Nil(t, a.auditLog, "no in-process fallback")
	assert.Empty(t, a.closers)

	a.tokens = memory.NewTokenEventStore()
	gw, err := a.gateway(false)
	require.NoError(t, err)

	res, err := gw.Ingest(context.Background(), "", []byte(`[{"tokenTransfers":[{"mint":"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"}]}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Ingested)
}
