package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwnerTable_SmallestWins(t *testing.T) {
	tab := NewOwnerTable(4)

	assert.Equal(t, uint32(4), tab.Owner(1))
	assert.True(t, tab.Claim(1, 3))
	assert.True(t, tab.Claim(1, 2))
	assert.False(t, tab.Claim(1, 3))
	assert.True(t, tab.Claim(1, 2))
	assert.Equal(t, uint32(2), tab.Owner(1))

	tab.Reset(1)
	assert.Equal(t, uint32(4), tab.Owner(1))
}

func TestOwnerTable_Concurrent(t *testing.T) {
	const n = 1000
	tab := NewOwnerTable(n)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func(stride int) {
			defer wg.Done()
			// Visit every column once, in a different order per goroutine.
			for k := range n {
				i := (k*stride + stride) % n
				tab.Claim(uint32(i%10), uint32(i))
			}
		}(2*g + 1)
	}
	wg.Wait()

	for v := range uint32(10) {
		assert.Equal(t, v, tab.Owner(v))
	}
}
