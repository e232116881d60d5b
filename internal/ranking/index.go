// Package ranking keeps every developer's ordinal rank consistent with the
// score table. Ordering is total DESC, then user id ASC.
package ranking

import (
	"math/rand/v2"
	"sync"
)

// Entry is one ranked position.
type Entry struct {
	UserID string  `json:"userId"`
	Total  float64 `json:"total"`
	Rank   int     `json:"rank"`
}

type node struct {
	id    string
	total float64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aTotal, aID) ranks before (bTotal, bID).
func less(aTotal float64, aID string, bTotal float64, bID string) bool {
	if aTotal != bTotal {
		return aTotal > bTotal
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, total float64, prio uint64) *node {
	if n == nil {
		return &node{id: id, total: total, prio: prio, size: 1}
	}
	if less(total, id, n.total, n.id) {
		n.left = insert(n.left, id, total, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, total, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, total float64) *node {
	if n == nil {
		return nil
	}
	if total == n.total && id == n.id {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, total)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, total)
		}
	} else if less(total, id, n.total, n.id) {
		n.left = deleteNode(n.left, id, total)
	} else {
		n.right = deleteNode(n.right, id, total)
	}
	fix(n)
	return n
}

// position counts the entries ranked strictly before (total, id).
func position(n *node, id string, total float64) int {
	pos := 0
	for n != nil {
		if less(total, id, n.total, n.id) {
			n = n.left
			continue
		}
		if n.id == id && n.total == total {
			return pos + nsize(n.left)
		}
		pos += nsize(n.left) + 1
		n = n.right
	}
	return pos
}

// collect appends in-order entries in [offset, offset+limit), skipping
// whole subtrees by size.
func collect(n *node, offset, limit int, base int, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	leftSize := nsize(n.left)
	if offset < base+leftSize {
		collect(n.left, offset, limit, base, out)
	}
	self := base + leftSize
	if len(*out) < limit && self >= offset {
		*out = append(*out, Entry{UserID: n.id, Total: n.total, Rank: self + 1})
	}
	if len(*out) < limit {
		collect(n.right, offset, limit, self+1, out)
	}
}

// Index is an order-statistics treap over user totals. Rank lookups, updates
// and range reads are O(log N) expected.
type Index struct {
	mu   sync.RWMutex
	root *node
	byID map[string]float64
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{byID: make(map[string]float64)}
}

// Reset replaces the contents of the index
func (x *Index) Reset(scores map[string]float64) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.root = nil
	x.byID = make(map[string]float64, len(scores))
	for id, total := range scores {
		x.byID[id] = total
		x.root = insert(x.root, id, total, rand.Uint64())
	}
}

// Upsert places id at total. It returns the 1-based ranks before and after;
// before is 0 when id was not indexed.
func (x *Index) Upsert(id string, total float64) (before, after int) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if old, ok := x.byID[id]; ok {
		before = position(x.root, id, old) + 1
		x.root = deleteNode(x.root, id, old)
	}
	x.byID[id] = total
	x.root = insert(x.root, id, total, rand.Uint64())
	after = position(x.root, id, total) + 1
	return before, after
}

// Remove drops id; it reports whether id was present
func (x *Index) Remove(id string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	old, ok := x.byID[id]
	if !ok {
		return false
	}
	x.root = deleteNode(x.root, id, old)
	delete(x.byID, id)
	return true
}

// Rank returns the 1-based rank of id
func (x *Index) Rank(id string) (int, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	total, ok := x.byID[id]
	if !ok {
		return 0, false
	}
	return position(x.root, id, total) + 1, true
}

// Contains reports whether id is indexed
func (x *Index) Contains(id string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()

	_, ok := x.byID[id]
	return ok
}

// Len returns the number of indexed users
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return nsize(x.root)
}

// Range returns up to limit entries starting at the 0-based offset
func (x *Index) Range(offset, limit int) []Entry {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]Entry, 0, min(limit, max(0, nsize(x.root)-offset)))
	collect(x.root, offset, limit, 0, &out)
	return out
}
