package metadata

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"token-radar/internal/domain"
	"token-radar/internal/solana"
)

// MetaplexProgramID is the Metaplex Token Metadata program.
const MetaplexProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

// metadataV1Key is the account discriminator of a Metaplex MetadataV1 account.
const metadataV1Key = 4

// RPCProvider resolves metadata through a Solana RPC node. It asks the DAS
// getAsset method first and falls back to reading the Metaplex metadata
// account directly when DAS is unavailable or returns nothing useful.
type RPCProvider struct {
	rpc    solana.RPCClient
	logger *zap.Logger
}

// NewRPCProvider creates a new RPC-backed provider.
func NewRPCProvider(rpc solana.RPCClient, logger *zap.Logger) *RPCProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RPCProvider{rpc: rpc, logger: logger.Named("metadata")}
}

// GetMetadata implements Provider.
func (p *RPCProvider) GetMetadata(ctx context.Context, mint string) (*domain.Metadata, error) {
	asset, dasErr := p.rpc.GetAsset(ctx, mint)
	if dasErr == nil && asset != nil {
		if m := fromAsset(asset); m.Name != nil || m.Symbol != nil {
			return m, nil
		}
	}
	if dasErr != nil {
		p.logger.Debug("das lookup failed, falling back to metaplex",
			zap.String("mint", mint), zap.Error(dasErr))
	}

	meta, err := p.fromMetaplex(ctx, mint)
	if err != nil {
		if dasErr != nil {
			return nil, fmt.Errorf("das: %v; metaplex: %w", dasErr, err)
		}
		return nil, err
	}
	return meta, nil
}

func fromAsset(a *solana.Asset) *domain.Metadata {
	m := &domain.Metadata{Raw: cleanRaw(a.Raw)}
	if name := cleanText(a.Name); name != "" {
		m.Name = &name
	}
	if symbol := cleanText(a.Symbol); symbol != "" {
		m.Symbol = &symbol
	}
	if image := cleanText(a.Image); image != "" {
		m.Image = &image
	}
	return m
}

func (p *RPCProvider) fromMetaplex(ctx context.Context, mint string) (*domain.Metadata, error) {
	pda, err := MetadataPDA(mint)
	if err != nil {
		return nil, err
	}

	info, err := p.rpc.GetAccountInfo(ctx, pda)
	if err != nil {
		return nil, fmt.Errorf("get metadata account: %w", err)
	}
	if info == nil || info.Data == "" {
		return nil, nil
	}

	onchain, err := parseMetaplexData(info.Data)
	if err != nil {
		return nil, err
	}
	if onchain.Name == "" && onchain.Symbol == "" {
		return nil, nil
	}

	raw, err := json.Marshal(onchain)
	if err != nil {
		return nil, fmt.Errorf("marshal metaplex metadata: %w", err)
	}

	m := &domain.Metadata{Raw: raw}
	if onchain.Name != "" {
		m.Name = &onchain.Name
	}
	if onchain.Symbol != "" {
		m.Symbol = &onchain.Symbol
	}
	return m, nil
}

// metaplexMetadata is the fixed-layout head of a MetadataV1 account.
type metaplexMetadata struct {
	Source          string `json:"source"`
	UpdateAuthority string `json:"updateAuthority"`
	Mint            string `json:"mint"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	URI             string `json:"uri"`
}

// parseMetaplexData parses base64 Metaplex Token Metadata account data.
// Layout: key u8 | updateAuthority [32] | mint [32] | name str | symbol str | uri str | ...
// Borsh strings are a u32 LE length followed by bytes, NUL padded.
func parseMetaplexData(data string) (*metaplexMetadata, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode metadata account: %w", err)
	}
	if len(decoded) < 65 {
		return nil, fmt.Errorf("metadata account too short: %d", len(decoded))
	}
	if decoded[0] != metadataV1Key {
		return nil, fmt.Errorf("unexpected metadata key %d", decoded[0])
	}

	m := &metaplexMetadata{
		Source:          "metaplex",
		UpdateAuthority: base58.Encode(decoded[1:33]),
		Mint:            base58.Encode(decoded[33:65]),
	}

	offset := 65
	for _, field := range []struct {
		dst *string
		max uint32
	}{
		{&m.Name, 64},
		{&m.Symbol, 32},
		{&m.URI, 256},
	} {
		if offset+4 > len(decoded) {
			return nil, fmt.Errorf("metadata account truncated at %d", offset)
		}
		n := binary.LittleEndian.Uint32(decoded[offset:])
		offset += 4
		if n > field.max || offset+int(n) > len(decoded) {
			return nil, fmt.Errorf("metadata string length %d out of range", n)
		}
		*field.dst = cleanText(string(decoded[offset : offset+int(n)]))
		offset += int(n)
	}

	return m, nil
}

// MetadataPDA derives the Metaplex metadata account address for mint.
// Seeds: ["metadata", metaplex_program_id, mint].
func MetadataPDA(mint string) (string, error) {
	mintBytes, err := base58.Decode(mint)
	if err != nil || len(mintBytes) != 32 {
		return "", fmt.Errorf("invalid mint %q", mint)
	}
	programBytes, err := base58.Decode(MetaplexProgramID)
	if err != nil {
		return "", fmt.Errorf("decode metaplex program id: %w", err)
	}

	seeds := [][]byte{[]byte("metadata"), programBytes, mintBytes}
	pda, ok := findProgramAddress(seeds, programBytes)
	if !ok {
		return "", fmt.Errorf("no off-curve address for mint %s", mint)
	}
	return pda, nil
}

// findProgramAddress searches bumps from 255 down for the first hash that
// is not a valid ed25519 point.
func findProgramAddress(seeds [][]byte, programID []byte) (string, bool) {
	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		for _, seed := range seeds {
			h.Write(seed)
		}
		h.Write([]byte{byte(bump)})
		h.Write(programID)
		h.Write([]byte("ProgramDerivedAddress"))
		sum := h.Sum(nil)

		if !isOnCurve(sum) {
			return base58.Encode(sum), true
		}
	}
	return "", false
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

var _ Provider = (*RPCProvider)(nil)
