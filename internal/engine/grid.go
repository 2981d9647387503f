package engine

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"gridhost/internal/models"
)

// DefaultCounterStart is the value the auto-key counter holds before any load.
const DefaultCounterStart = 10

// Renderer consumes published grid state. Callbacks run on the goroutine that
// issued the operation, after the grid lock is released, and must not call
// Load/Clear/AddColumn themselves.
type Renderer interface {
	// Detach drops every reference to the previous rows and columns.
	Detach()
	// Attach hands over the new state. Missing keys render as empty cells.
	Attach(Snapshot)
}

type LoadOptions struct {
	RowCount int
	// Indices defaults to Sequential.
	Indices IndexGenerator
	Shuffle bool
}

type Options struct {
	Randomizer   *Randomizer
	Logger       *slog.Logger
	CounterStart int
}

// Grid owns the rows and the column set. It is the only writer of both.
type Grid struct {
	// publishMu orders whole operations, including renderer callbacks.
	publishMu sync.Mutex
	renderers []Renderer

	mu         sync.RWMutex
	state      models.GridState
	rows       []*models.Row
	columns    *ColumnSet
	counter    int
	generation uint64
	snapshotID uuid.UUID

	rnd *Randomizer
	log *slog.Logger
}

func NewGrid(opts Options) *Grid {
	g := &Grid{
		state:      models.StateEmpty,
		columns:    BuildColumnSet(nil),
		counter:    opts.CounterStart,
		snapshotID: uuid.New(),
		rnd:        opts.Randomizer,
		log:        opts.Logger,
	}
	if g.counter <= 0 {
		g.counter = DefaultCounterStart
	}
	if g.rnd == nil {
		g.rnd = NewTimeRandomizer()
	}
	if g.log == nil {
		g.log = slog.New(slog.DiscardHandler)
	}
	return g
}

// Subscribe registers r. If the grid is loaded, r is attached right away.
func (g *Grid) Subscribe(r Renderer) {
	g.publishMu.Lock()
	defer g.publishMu.Unlock()

	g.renderers = append(g.renderers, r)

	g.mu.RLock()
	snap := g.snapshotLocked()
	g.mu.RUnlock()

	if snap.State == models.StateLoaded {
		r.Attach(snap)
	}
}

// Load replaces rows and columns in one step. Renderers are detached before
// the swap and attached to the new state after it.
//
// A negative RowCount loads zero rows and returns the (valid) snapshot
// together with an error wrapping ErrInvalidRowCount.
func (g *Grid) Load(opts LoadOptions) (Snapshot, error) {
	start := time.Now()

	count := opts.RowCount
	var countErr error
	if count < 0 {
		countErr = fmt.Errorf("%w: %d", ErrInvalidRowCount, count)
		count = 0
	}
	gen := opts.Indices
	if gen == nil {
		gen = Sequential
	}

	g.publishMu.Lock()
	defer g.publishMu.Unlock()

	// rows are private until the swap, so they are built outside g.mu
	var indices []int
	if count > 0 {
		indices = gen(count)
	}
	rows := GenerateRows(indices)
	if opts.Shuffle {
		rows = Shuffle(g.rnd, rows)
	}
	columns := BuildColumnSet(DiscoverKeys(rows))

	g.detachAll()

	g.mu.Lock()
	g.rows = rows
	g.columns = columns
	g.state = models.StateLoaded
	if m, ok := maxIndex(rows); ok && m > g.counter {
		g.counter = m
	}
	snap := g.publishLocked()
	g.mu.Unlock()

	g.attachAll(snap)

	if countErr != nil {
		g.log.Warn("row count clamped", "requested", opts.RowCount)
	}
	g.log.Info("grid loaded",
		"rows", len(snap.Rows),
		"columns", len(snap.Columns),
		"shuffle", opts.Shuffle,
		"generation", snap.Generation,
		"elapsed", time.Since(start))
	return snap, countErr
}

// Clear drops rows and columns and detaches every renderer.
func (g *Grid) Clear() Snapshot {
	g.publishMu.Lock()
	defer g.publishMu.Unlock()

	g.detachAll()

	g.mu.Lock()
	g.rows = nil
	g.columns = BuildColumnSet(nil)
	g.state = models.StateEmpty
	snap := g.publishLocked()
	g.mu.Unlock()

	g.log.Info("grid cleared", "generation", snap.Generation)
	return snap
}

// AddColumn appends a column and populates it on a random ~50% of rows.
// An empty key asks for the next generated "KeyN" key. A key that is already
// present is rejected with ErrDuplicateKey and nothing changes.
func (g *Grid) AddColumn(key string) (Snapshot, error) {
	g.publishMu.Lock()
	defer g.publishMu.Unlock()

	g.mu.Lock()

	next := g.counter + 1
	if key == "" {
		for g.columns.Has(autoKey(next)) || g.rowsCarry(autoKey(next)) {
			next++
		}
		key = autoKey(next)
	} else if g.rowsCarry(key) {
		g.mu.Unlock()
		err := fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		g.log.Warn("add column rejected", "key", key, "error", err)
		return Snapshot{}, err
	}

	if err := g.columns.Append(key); err != nil {
		g.mu.Unlock()
		g.log.Warn("add column rejected", "key", key, "error", err)
		return Snapshot{}, err
	}
	g.counter = next

	value := models.NewDynamicData(next)
	populated := 0
	for _, r := range g.rows {
		if !g.rnd.CoinFlip() {
			continue
		}
		// no row carries key, checked above
		_ = r.DynamicItem.Add(key, value)
		populated++
	}
	g.state = models.StateLoaded
	snap := g.publishLocked()
	g.mu.Unlock()

	g.attachAll(snap)

	g.log.Info("column added",
		"key", key,
		"populated", populated,
		"rows", len(snap.Rows),
		"columns", len(snap.Columns),
		"generation", snap.Generation)
	return snap, nil
}

// Rows returns the current rows. The slice is a copy; the rows are shared.
func (g *Grid) Rows() []*models.Row {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*models.Row, len(g.rows))
	copy(out, g.rows)
	return out
}

func (g *Grid) Columns() []models.ColumnDescriptor {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.columns.Columns()
}

func (g *Grid) State() models.GridState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Grid) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshotLocked()
}

// View runs fn under the read lock, so fn may walk row contents while
// another goroutine waits to mutate them.
func (g *Grid) View(fn func(Snapshot)) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fn(g.snapshotLocked())
}

func (g *Grid) rowsCarry(key string) bool {
	for _, r := range g.rows {
		if r.DynamicItem.Has(key) {
			return true
		}
	}
	return false
}

func (g *Grid) publishLocked() Snapshot {
	g.generation++
	g.snapshotID = uuid.New()
	return g.snapshotLocked()
}

func (g *Grid) snapshotLocked() Snapshot {
	rows := make([]*models.Row, len(g.rows))
	copy(rows, g.rows)
	return Snapshot{
		ID:         g.snapshotID,
		Generation: g.generation,
		State:      g.state,
		Rows:       rows,
		Columns:    g.columns.Columns(),
	}
}

func (g *Grid) detachAll() {
	for _, r := range g.renderers {
		r.Detach()
	}
}

func (g *Grid) attachAll(snap Snapshot) {
	for _, r := range g.renderers {
		r.Attach(snap)
	}
}

func autoKey(n int) string {
	return "Key" + strconv.Itoa(n)
}
