package integrity

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	var n int
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Millisecond)
	}
}

func TestVerify_AfterSequentialAppends(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5, 25} {
		c := NewChain(WithClock(fixedClock()))
		for i := 0; i < n; i++ {
			_, err := c.Append(map[string]int{"seq": i})
			require.NoError(t, err)
		}
		require.True(t, c.Verify(), "n=%d", n)
	}
}

func TestAppend_MinesPrefixAndLinks(t *testing.T) {
	c := NewChain(WithClock(fixedClock()))
	h1, err := c.Append("first")
	require.NoError(t, err)
	h2, err := c.Append(struct{ Score int }{42})
	require.NoError(t, err)

	blocks := c.Blocks()
	require.Len(t, blocks, 3)
	genesis := blocks[0]
	require.Equal(t, 0, genesis.Index)
	require.Equal(t, "0", genesis.PreviousHash)
	require.Equal(t, GenesisData, genesis.Data)

	require.Equal(t, h1, blocks[1].Hash)
	require.Equal(t, h2, blocks[2].Hash)
	require.Equal(t, genesis.Hash, blocks[1].PreviousHash)
	require.Equal(t, h1, blocks[2].PreviousHash)
	require.True(t, strings.HasPrefix(h1, "00"))
	require.True(t, strings.HasPrefix(h2, "00"))
	require.Equal(t, `"first"`, blocks[1].Data)
	require.Equal(t, `{"Score":42}`, blocks[2].Data)
	require.Equal(t, blocks[1].Hash, CalculateHash(1, blocks[1].Timestamp, blocks[1].Data, blocks[1].PreviousHash, blocks[1].Nonce))
}

func TestVerify_DetectsTamperedData(t *testing.T) {
	c := NewChain(WithClock(fixedClock()))
	for i := 0; i < 4; i++ {
		_, err := c.Append(map[string]int{"seq": i})
		require.NoError(t, err)
	}
	require.True(t, c.Verify())

	c.blocks[2].Data = `{"seq":99}`
	require.False(t, c.Verify())
}

func TestVerify_DetectsBrokenLink(t *testing.T) {
	c := NewChain(WithClock(fixedClock()), WithDifficulty(0))
	_, err := c.Append("a")
	require.NoError(t, err)
	_, err = c.Append("b")
	require.NoError(t, err)

	b := &c.blocks[2]
	b.PreviousHash = strings.Repeat("f", 64)
	b.Hash = b.computeHash()
	require.False(t, c.Verify())
}

func TestAppend_AcceptsHashAtAttemptCap(t *testing.T) {
	c := NewChain(WithClock(fixedClock()), WithDifficulty(64), WithMaxAttempts(3))
	_, err := c.Append("unreachable difficulty")
	require.NoError(t, err)

	tail := c.Latest()
	require.Equal(t, 2, tail.Nonce)
	require.True(t, c.Verify())
}

func TestAppend_RejectsUnserializableData(t *testing.T) {
	c := NewChain()
	_, err := c.Append(make(chan int))
	require.Error(t, err)
	require.Equal(t, 0, c.Len())
}

func TestGenesis_IsLazy(t *testing.T) {
	c := NewChain(WithClock(fixedClock()))
	require.Equal(t, 0, c.Len())
	g := c.Genesis()
	require.Equal(t, 1, c.Len())
	require.Equal(t, g, c.Genesis())
	require.Equal(t, g, c.Latest())
}

func TestAppend_ConcurrentWritersKeepInvariant(t *testing.T) {
	c := NewChain()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := c.Append(i); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	blocks := c.Blocks()
	require.Len(t, blocks, 17)
	for i, b := range blocks {
		require.Equal(t, i, b.Index)
	}
	require.True(t, c.Verify())
}
