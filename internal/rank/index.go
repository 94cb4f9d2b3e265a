package rank

import (
	"math/rand"
	"sync"

	"scoreboard/internal/types"
)

// key is the total ranking order: higher score first, earlier achievement
// first on equal scores, userID as the final deterministic tie-break.
type key struct {
	score     int64
	updatedAt int64
	userID    string
}

func (k key) less(o key) bool {
	if k.score != o.score {
		return k.score > o.score
	}
	if k.updatedAt != o.updatedAt {
		return k.updatedAt < o.updatedAt
	}
	return k.userID < o.userID
}

// node is a treap node augmented with subtree size so rank queries stay
// O(log N).
type node struct {
	k           key
	prio        uint64
	size        int
	left, right *node
}

func (n *node) sz() int {
	if n == nil {
		return 0
	}
	return n.size
}

func (n *node) update() {
	n.size = n.left.sz() + n.right.sz() + 1
}

// split partitions n into trees holding keys before k and keys at/after k.
func split(n *node, k key) (*node, *node) {
	if n == nil {
		return nil, nil
	}
	if n.k.less(k) {
		var r *node
		n.right, r = split(n.right, k)
		n.update()
		return n, r
	}
	var l *node
	l, n.left = split(n.left, k)
	n.update()
	return l, n
}

func merge(l, r *node) *node {
	if l == nil {
		return r
	}
	if r == nil {
		return l
	}
	if l.prio > r.prio {
		l.right = merge(l.right, r)
		l.update()
		return l
	}
	r.left = merge(l, r.left)
	r.update()
	return r
}

func insert(n, nn *node) *node {
	if n == nil {
		return nn
	}
	if nn.prio > n.prio {
		nn.left, nn.right = split(n, nn.k)
		nn.update()
		return nn
	}
	if nn.k.less(n.k) {
		n.left = insert(n.left, nn)
	} else {
		n.right = insert(n.right, nn)
	}
	n.update()
	return n
}

func remove(n *node, k key) *node {
	if n == nil {
		return nil
	}
	if k.less(n.k) {
		n.left = remove(n.left, k)
		n.update()
		return n
	}
	if n.k.less(k) {
		n.right = remove(n.right, k)
		n.update()
		return n
	}
	return merge(n.left, n.right)
}

// Index is the authoritative in-memory ranking structure. It is a derived
// cache over the score store, rebuildable at startup via Rebuild. Readers
// of TopK/RankOf run concurrently; writers are exclusive.
type Index struct {
	mu      sync.RWMutex
	root    *node
	entries map[string]key
	// version increments on every mutation so derived snapshots can be
	// checked for staleness.
	version uint64
}

func NewIndex() *Index {
	return &Index{entries: make(map[string]key)}
}

// Upsert replaces any prior entry for userID with (score, updatedAt).
// Atomic relative to concurrent reads: no torn rank is ever observable.
func (ix *Index) Upsert(userID string, score, updatedAt int64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if old, ok := ix.entries[userID]; ok {
		ix.root = remove(ix.root, old)
	}
	k := key{score: score, updatedAt: updatedAt, userID: userID}
	ix.entries[userID] = k
	ix.root = insert(ix.root, &node{k: k, prio: rand.Uint64(), size: 1})
	ix.version++
}

// RankOf returns the 1-indexed rank of userID, or (0, false) when the user
// holds no entry.
func (ix *Index) RankOf(userID string) (int, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	k, ok := ix.entries[userID]
	if !ok {
		return 0, false
	}
	r := 1
	n := ix.root
	for n != nil {
		switch {
		case n.k.less(k):
			r += n.left.sz() + 1
			n = n.right
		case k.less(n.k):
			n = n.left
		default:
			return r + n.left.sz(), true
		}
	}
	return 0, false
}

// TopK returns the k best entries in rank order. The result is built under
// one read lock, so it is always internally consistent.
func (ix *Index) TopK(k int) []types.LeaderboardEntry {
	entries, _ := ix.TopKWithVersion(k)
	return entries
}

// TopKWithVersion additionally reports the index version the snapshot was
// built at, letting callers reject results older than a state they have
// already observed.
func (ix *Index) TopKWithVersion(k int) ([]types.LeaderboardEntry, uint64) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]types.LeaderboardEntry, 0, k)
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil || len(out) >= k {
			return
		}
		walk(n.left)
		if len(out) >= k {
			return
		}
		out = append(out, types.LeaderboardEntry{
			Rank:   len(out) + 1,
			UserID: n.k.userID,
			Score:  n.k.score,
		})
		walk(n.right)
	}
	walk(ix.root)
	return out, ix.version
}

// Version reports the current mutation count.
func (ix *Index) Version() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.version
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Score returns the indexed score for userID.
func (ix *Index) Score(userID string) (int64, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	k, ok := ix.entries[userID]
	if !ok {
		return 0, false
	}
	return k.score, true
}

// Rebuild discards the index and reloads it from store entries, used once
// at startup to restore the derived cache.
func (ix *Index) Rebuild(entries []types.ScoreEntry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.root = nil
	ix.entries = make(map[string]key, len(entries))
	for _, e := range entries {
		k := key{score: e.Score, updatedAt: e.UpdatedAt, userID: e.UserID}
		ix.entries[e.UserID] = k
		ix.root = insert(ix.root, &node{k: k, prio: rand.Uint64(), size: 1})
	}
	ix.version++
}

// Entries dumps every indexed entry, unordered. Intended for consistency
// checks against the store.
func (ix *Index) Entries() []types.ScoreEntry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]types.ScoreEntry, 0, len(ix.entries))
	for _, k := range ix.entries {
		out = append(out, types.ScoreEntry{UserID: k.userID, Score: k.score, UpdatedAt: k.updatedAt})
	}
	return out
}
