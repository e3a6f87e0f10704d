package engine

import "sync/atomic"

// OwnerTable maps a low value to the smallest column index that has it.
// It is the only structure shared between concurrent claimers and is only
// touched through atomic load, CAS and store.
type OwnerTable struct {
	slots []atomic.Uint32
	none  uint32
}

// NewOwnerTable creates a table of n slots, all unowned (n).
func NewOwnerTable(n uint32) *OwnerTable {
	t := &OwnerTable{
		slots: make([]atomic.Uint32, n),
		none:  n,
	}
	for i := range t.slots {
		t.slots[i].Store(n)
	}
	return t
}

// Claim records column i as a candidate owner of low v. The smallest index
// wins regardless of the order claims arrive in. It reports whether i owns v
// when it returns.
func (t *OwnerTable) Claim(v, i uint32) bool {
	slot := &t.slots[v]
	for {
		cur := slot.Load()
		if cur < i {
			return false
		}
		if cur == i || slot.CompareAndSwap(cur, i) {
			return true
		}
	}
}

// Owner returns the owner of v, or n if unowned.
func (t *OwnerTable) Owner(v uint32) uint32 {
	return t.slots[v].Load()
}

// Reset marks v unowned.
func (t *OwnerTable) Reset(v uint32) {
	t.slots[v].Store(t.none)
}
