package clob

import "github.com/tidwall/btree"

// Ladder is the price-ordered map of PriceLevels described in spec §3/§4.2.
// It is backed by a tidwall/btree ordered map the way Aidin1998-finalex's
// order book backs its own bid/ask books (there keyed by decimal-string
// price; here by int64 ticks, which the generic ordered-key map accepts
// directly) — giving O(log L) best-price access and O(log L) level
// insert/delete, as spec §1 requires. The bid ladder reads best-first via
// Reverse (highest price first); the ask ladder via Scan (lowest first).
type Ladder struct {
	side   Side
	levels *btree.Map[int64, *PriceLevel]
}

func newLadder(side Side) *Ladder {
	return &Ladder{side: side, levels: btree.NewMap[int64, *PriceLevel](32)}
}

// BestLevel returns the highest-priority price level (best bid or best
// ask), stopping the underlying B-tree scan after the first element —
// O(log L), never a full traversal.
func (l *Ladder) BestLevel() (*PriceLevel, bool) {
	var lvl *PriceLevel
	found := false
	visit := func(_ int64, pl *PriceLevel) bool {
		lvl, found = pl, true
		return false
	}
	if l.side == SideBuy {
		l.levels.Reverse(visit)
	} else {
		l.levels.Scan(visit)
	}
	return lvl, found
}

// BestPrice returns the best resting price, or (0, false) if the ladder is
// empty.
func (l *Ladder) BestPrice() (int64, bool) {
	lvl, ok := l.BestLevel()
	if !ok {
		return 0, false
	}
	return lvl.Price, true
}

// GetOrCreate returns the level at price, creating an empty one if absent.
func (l *Ladder) GetOrCreate(price int64) *PriceLevel {
	if lvl, ok := l.levels.Get(price); ok {
		return lvl
	}
	lvl := newPriceLevel(price)
	l.levels.Set(price, lvl)
	return lvl
}

// Get returns the level at price without creating one.
func (l *Ladder) Get(price int64) (*PriceLevel, bool) {
	return l.levels.Get(price)
}

// DropIfEmpty removes the level at price if its FIFO has drained (spec
// §4.2's "no empty levels" invariant).
func (l *Ladder) DropIfEmpty(price int64) {
	if lvl, ok := l.levels.Get(price); ok && lvl.Empty() {
		l.levels.Delete(price)
	}
}

// Len is the number of non-empty price levels.
func (l *Ladder) Len() int {
	return l.levels.Len()
}

// LevelView is a read-only snapshot of one price level, used by Depth
// queries.
type LevelView struct {
	Price int64
	Qty   uint64
}

// Depth returns up to n price levels, best-first. n <= 0 returns every
// level.
func (l *Ladder) Depth(n int) []LevelView {
	out := make([]LevelView, 0)
	visit := func(_ int64, pl *PriceLevel) bool {
		out = append(out, LevelView{Price: pl.Price, Qty: pl.aggregateQty})
		return n <= 0 || len(out) < n
	}
	if l.side == SideBuy {
		l.levels.Reverse(visit)
	} else {
		l.levels.Scan(visit)
	}
	return out
}
