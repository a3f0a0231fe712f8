// Package stub provides an in-memory solana.RPCClient for tests.
package stub

import (
	"context"
	"sync"

	"token-radar/internal/solana"
)

// RPCClient implements solana.RPCClient from fixed maps.
// Missing entries behave like the node: nil, nil.
type RPCClient struct {
	mu           sync.Mutex
	Transactions map[string]*solana.Transaction
	Accounts     map[string]*solana.AccountInfo
	Assets       map[string]*solana.Asset

	// Err, when set, is returned by every call.
	Err error

	Calls map[string]int // method -> call count
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Transactions: make(map[string]*solana.Transaction),
		Accounts:     make(map[string]*solana.AccountInfo),
		Assets:       make(map[string]*solana.Asset),
		Calls:        make(map[string]int),
	}
}

func (c *RPCClient) record(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls[method]++
	return c.Err
}

// GetTransaction returns the stored transaction for signature.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	if err := c.record("getTransaction"); err != nil {
		return nil, err
	}
	return c.Transactions[signature], nil
}

// GetAccountInfo returns the stored account for pubkey.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	if err := c.record("getAccountInfo"); err != nil {
		return nil, err
	}
	return c.Accounts[pubkey], nil
}

// GetAsset returns the stored asset for id.
func (c *RPCClient) GetAsset(_ context.Context, id string) (*solana.Asset, error) {
	if err := c.record("getAsset"); err != nil {
		return nil, err
	}
	return c.Assets[id], nil
}

// CallCount returns how many times method was invoked.
func (c *RPCClient) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Calls[method]
}

var _ solana.RPCClient = (*RPCClient)(nil)
