package pather

import (
	"strings"
	"sync"
)

// CollisionGuard detects destination paths that collide when the filesystem
// folds letter case. Two distinct sources mapping to names that differ only
// in case would silently overwrite each other on such filesystems, so the
// guard rejects the second claim instead of writing. All methods are
// goroutine-safe.
type CollisionGuard struct {
	mu     sync.Mutex
	owners map[string]claim // case-folded dest -> claim
}

type claim struct {
	dest   string
	source string
}

// NewCollisionGuard creates a ready-to-use guard.
func NewCollisionGuard() *CollisionGuard {
	return &CollisionGuard{owners: make(map[string]claim)}
}

// Claim registers dest for source. It returns ok=false with the conflicting
// destination when a different source already claimed a path that is equal
// to dest under case folding. Re-claiming the same dest for the same source
// succeeds (re-runs overwrite deterministically).
func (g *CollisionGuard) Claim(source, dest string) (string, bool) {
	key := strings.ToLower(dest)

	g.mu.Lock()
	defer g.mu.Unlock()

	prev, exists := g.owners[key]
	if !exists {
		g.owners[key] = claim{dest: dest, source: source}
		return "", true
	}
	if prev.source == source && prev.dest == dest {
		return "", true
	}
	return prev.dest, false
}
