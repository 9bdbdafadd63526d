package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	GenesisData         = "Genesis Block - Digital Health Twin"
	genesisPreviousHash = "0"
	defaultDifficulty   = 2
	defaultMaxAttempts  = 10000
	timestampLayout     = "2006-01-02T15:04:05.000Z07:00"
)

type Block struct {
	Index        int    `json:"index"`
	Timestamp    string `json:"timestamp"`
	Data         string `json:"data"`
	PreviousHash string `json:"previousHash"`
	Hash         string `json:"hash"`
	Nonce        int    `json:"nonce"`
}

// Chain is an append-only, in-process tamper-evidence log. It has no peers and
// no persistence; it lives as long as the process.
type Chain struct {
	mu          sync.RWMutex
	blocks      []Block
	now         func() time.Time
	difficulty  int
	maxAttempts int
}

type Option func(*Chain)

func WithClock(now func() time.Time) Option {
	return func(c *Chain) { c.now = now }
}

// WithDifficulty sets how many leading '0' hex digits a mined hash needs.
func WithDifficulty(zeros int) Option {
	return func(c *Chain) {
		if zeros >= 0 {
			c.difficulty = zeros
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(c *Chain) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func NewChain(opts ...Option) *Chain {
	c := &Chain{
		now:         time.Now,
		difficulty:  defaultDifficulty,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CalculateHash is SHA-256 over index || timestamp || data || previousHash || nonce.
func CalculateHash(index int, timestamp, data, previousHash string, nonce int) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(index))
	b.WriteString(timestamp)
	b.WriteString(data)
	b.WriteString(previousHash)
	b.WriteString(strconv.Itoa(nonce))
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func (b Block) computeHash() string {
	return CalculateHash(b.Index, b.Timestamp, b.Data, b.PreviousHash, b.Nonce)
}

func (c *Chain) timestamp() string {
	return c.now().UTC().Format(timestampLayout)
}

// ensureGenesis must be called with mu held for writing.
func (c *Chain) ensureGenesis() {
	if len(c.blocks) > 0 {
		return
	}
	genesis := Block{
		Index:        0,
		Timestamp:    c.timestamp(),
		Data:         GenesisData,
		PreviousHash: genesisPreviousHash,
	}
	genesis.Hash = genesis.computeHash()
	c.blocks = append(c.blocks, genesis)
}

func (c *Chain) Genesis() Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureGenesis()
	return c.blocks[0]
}

// Append serialises data, mines a block linked to the current tail and returns
// its hash. The nonce search stops at the first hash with the required zero
// prefix or after maxAttempts tries, whichever comes first; at the cap the last
// computed hash is kept.
func (c *Chain) Append(data any) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("serialize block data: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureGenesis()

	prev := c.blocks[len(c.blocks)-1]
	block := Block{
		Index:        prev.Index + 1,
		Timestamp:    c.timestamp(),
		Data:         string(payload),
		PreviousHash: prev.Hash,
	}
	c.mine(&block)

	c.blocks = append(c.blocks, block)
	return block.Hash, nil
}

func (c *Chain) mine(b *Block) {
	prefix := strings.Repeat("0", c.difficulty)
	for nonce := 0; nonce < c.maxAttempts; nonce++ {
		b.Nonce = nonce
		b.Hash = b.computeHash()
		if strings.HasPrefix(b.Hash, prefix) {
			return
		}
	}
}

// Verify recomputes every non-genesis hash and checks each link to its
// predecessor. It reports false at the first mismatch.
func (c *Chain) Verify() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := 1; i < len(c.blocks); i++ {
		cur, prev := c.blocks[i], c.blocks[i-1]
		if cur.Hash != cur.computeHash() {
			return false
		}
		if cur.PreviousHash != prev.Hash {
			return false
		}
	}
	return true
}

func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

func (c *Chain) Blocks() []Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Block(nil), c.blocks...)
}

// Latest returns the tail block, creating the genesis block on an empty chain.
func (c *Chain) Latest() Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureGenesis()
	return c.blocks[len(c.blocks)-1]
}
