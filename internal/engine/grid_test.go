package engine

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridhost/internal/models"
)

type recordingRenderer struct {
	events []string
	last   Snapshot
}

func (r *recordingRenderer) Detach() {
	r.events = append(r.events, "detach")
	r.last = Snapshot{}
}

func (r *recordingRenderer) Attach(s Snapshot) {
	r.events = append(r.events, fmt.Sprintf("attach:%d", len(s.Columns)))
	r.last = s
}

func newTestGrid(seed uint64) *Grid {
	return NewGrid(Options{Randomizer: NewRandomizer(seed)})
}

// requireColumnsCoverRows checks that every key carried by a row has a column.
func requireColumnsCoverRows(t *testing.T, s Snapshot) {
	t.Helper()
	cols := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		require.False(t, cols[c.Key], "duplicate column %s", c.Key)
		cols[c.Key] = true
	}
	for _, k := range DiscoverKeys(s.Rows) {
		require.True(t, cols[k], "row key %s has no column\n%s", k, spew.Sdump(s.Columns))
	}
}

func TestGridStartsEmpty(t *testing.T) {
	g := newTestGrid(1)

	assert.Equal(t, models.StateEmpty, g.State())
	assert.Empty(t, g.Rows())
	assert.Empty(t, g.Columns())
}

func TestGridLoadTwentyRows(t *testing.T) {
	g := newTestGrid(1)

	snap, err := g.Load(LoadOptions{RowCount: 20, Shuffle: true})
	require.NoError(t, err)

	assert.Equal(t, models.StateLoaded, snap.State)
	assert.Len(t, snap.Rows, 20)
	require.Len(t, snap.Columns, 5)
	assert.ElementsMatch(t, []string{"Pos0", "Pos1", "Pos2", "Pos3", "Pos4"}, snap.Keys())
	assert.Equal(t, snap.Keys(), DiscoverKeys(snap.Rows))
	requireColumnsCoverRows(t, snap)

	assert.Equal(t, snap.Keys(), g.Snapshot().Keys())
	assert.Equal(t, snap.ID, g.Snapshot().ID)
}

func TestGridLoadShuffleChangesOrder(t *testing.T) {
	g := newTestGrid(9)

	snap, err := g.Load(LoadOptions{RowCount: 50, Shuffle: true})
	require.NoError(t, err)

	inOrder := true
	for i, r := range snap.Rows {
		if r.Index != i+1 {
			inOrder = false
			break
		}
	}
	assert.False(t, inOrder)

	snap, err = g.Load(LoadOptions{RowCount: 50})
	require.NoError(t, err)
	for i, r := range snap.Rows {
		require.Equal(t, i+1, r.Index)
	}
}

func TestGridLoadZeroRows(t *testing.T) {
	g := newTestGrid(1)

	snap, err := g.Load(LoadOptions{RowCount: 0})
	require.NoError(t, err)
	assert.Equal(t, models.StateLoaded, snap.State)
	assert.Empty(t, snap.Rows)
	assert.Empty(t, snap.Columns)
}

func TestGridLoadNegativeRowCount(t *testing.T) {
	g := newTestGrid(1)
	_, err := g.Load(LoadOptions{RowCount: 20})
	require.NoError(t, err)

	snap, err := g.Load(LoadOptions{RowCount: -3})
	require.ErrorIs(t, err, ErrInvalidRowCount)
	assert.Equal(t, models.StateLoaded, snap.State)
	assert.Empty(t, snap.Rows)
	assert.Empty(t, snap.Columns)
	assert.Empty(t, g.Rows())
}

func TestGridLoadCustomIndices(t *testing.T) {
	g := newTestGrid(1)

	snap, err := g.Load(LoadOptions{
		RowCount: 3,
		Indices:  func(n int) []int { return []int{3, 8, 13, 8} },
	})
	require.NoError(t, err)
	assert.Len(t, snap.Rows, 3)
	assert.Equal(t, []string{"Pos3"}, snap.Keys())

	// counter was raised to the highest loaded index
	snap, err = g.AddColumn("")
	require.NoError(t, err)
	assert.Equal(t, "Key14", snap.Keys()[1])
}

func TestGridAddColumnTwice(t *testing.T) {
	g := newTestGrid(2)
	before, err := g.Load(LoadOptions{RowCount: 20})
	require.NoError(t, err)

	first, err := g.AddColumn("")
	require.NoError(t, err)
	second, err := g.AddColumn("")
	require.NoError(t, err)

	require.Len(t, first.Columns, len(before.Columns)+1)
	require.Len(t, second.Columns, len(before.Columns)+2)

	// append-only: earlier columns keep their place
	assert.Equal(t, before.Keys(), second.Keys()[:len(before.Columns)])
	assert.Equal(t, first.Keys(), second.Keys()[:len(first.Columns)])

	assert.Equal(t, []string{"Key21", "Key22"}, second.Keys()[5:])
	requireColumnsCoverRows(t, second)
}

func TestGridAddColumnDuplicateRejected(t *testing.T) {
	g := newTestGrid(3)
	before, err := g.Load(LoadOptions{RowCount: 20})
	require.NoError(t, err)

	_, err = g.AddColumn("Pos0")
	require.ErrorIs(t, err, ErrDuplicateKey)

	after := g.Snapshot()
	assert.Len(t, after.Columns, 5)
	assert.Equal(t, before.Generation, after.Generation)
	assert.Equal(t, before.ID, after.ID)

	// counter untouched by the rejected call
	snap, err := g.AddColumn("")
	require.NoError(t, err)
	assert.Equal(t, "Key21", snap.Keys()[5])
}

func TestGridAddColumnExplicitKey(t *testing.T) {
	g := newTestGrid(4)
	_, err := g.Load(LoadOptions{RowCount: 200})
	require.NoError(t, err)

	snap, err := g.AddColumn("custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", snap.Keys()[5])

	found := 0
	for _, r := range snap.Rows {
		if v, ok := snap.Cell(r, "custom"); ok {
			found++
			assert.Equal(t, models.NewDynamicData(201), v)
		}
	}
	assert.Greater(t, found, 0)
	assert.Less(t, found, 200)

	_, err = g.AddColumn("custom")
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestGridAutoKeySkipsTakenKeys(t *testing.T) {
	g := newTestGrid(5)
	_, err := g.Load(LoadOptions{RowCount: 20})
	require.NoError(t, err)

	// explicit key consumes counter value 21 and occupies Key22
	_, err = g.AddColumn("Key22")
	require.NoError(t, err)

	snap, err := g.AddColumn("")
	require.NoError(t, err)
	assert.Equal(t, []string{"Key22", "Key23"}, snap.Keys()[5:])
}

func TestGridCounterNeverDecreases(t *testing.T) {
	g := newTestGrid(6)
	_, err := g.Load(LoadOptions{RowCount: 20})
	require.NoError(t, err)
	g.Clear()
	_, err = g.Load(LoadOptions{RowCount: 5})
	require.NoError(t, err)

	snap, err := g.AddColumn("")
	require.NoError(t, err)
	assert.Equal(t, "Key21", snap.Keys()[len(snap.Keys())-1])
}

func TestGridAddColumnOnEmptyGrid(t *testing.T) {
	g := newTestGrid(7)

	snap, err := g.AddColumn("")
	require.NoError(t, err)
	assert.Equal(t, models.StateLoaded, snap.State)
	assert.Equal(t, []string{"Key11"}, snap.Keys())
	assert.Empty(t, snap.Rows)
}

func TestGridMissingKeyIsAbsent(t *testing.T) {
	g := newTestGrid(8)
	snap, err := g.Load(LoadOptions{RowCount: 10})
	require.NoError(t, err)

	row, ok := snap.FindRow(1)
	require.True(t, ok)

	v, ok := snap.Cell(row, "Pos2")
	assert.False(t, ok)
	assert.Equal(t, models.DynamicData{}, v)

	table := snap.Table()
	require.Len(t, table.Rows, 10)
	assert.Equal(t, []string{"Index", "A", "B", "Pos1", "Pos2", "Pos3", "Pos4", "Pos0"}, table.Header)

	first := table.Rows[0]
	assert.Equal(t, TableCell{Text: "X1 Y1", Present: true}, first[3])
	assert.Equal(t, TableCell{}, first[4])

	view := snap.RowView(row)
	require.Len(t, view.Cells, 5)
	assert.NotNil(t, view.Cells[0].Value)
	assert.Nil(t, view.Cells[1].Value)
}

func TestGridClear(t *testing.T) {
	g := newTestGrid(9)
	loaded, err := g.Load(LoadOptions{RowCount: 20})
	require.NoError(t, err)

	snap := g.Clear()
	assert.Equal(t, models.StateEmpty, snap.State)
	assert.Empty(t, g.Rows())
	assert.Empty(t, g.Columns())
	assert.Greater(t, snap.Generation, loaded.Generation)
	assert.NotEqual(t, loaded.ID, snap.ID)
}

func TestGridRendererSequence(t *testing.T) {
	g := newTestGrid(10)
	r := &recordingRenderer{}
	g.Subscribe(r)
	assert.Empty(t, r.events, "empty grid does not attach")

	_, err := g.Load(LoadOptions{RowCount: 20})
	require.NoError(t, err)
	_, err = g.AddColumn("")
	require.NoError(t, err)
	_, err = g.AddColumn("Pos1")
	require.Error(t, err)
	g.Clear()
	_, err = g.Load(LoadOptions{RowCount: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"detach", "attach:5",
		"attach:6",
		"detach",
		"detach", "attach:3",
	}, r.events)

	late := &recordingRenderer{}
	g.Subscribe(late)
	assert.Equal(t, []string{"attach:3"}, late.events)
	assert.Equal(t, g.Snapshot().ID, late.last.ID)
}

func TestGridRendererCanReadDuringCallback(t *testing.T) {
	g := newTestGrid(11)
	var seen int
	g.Subscribe(rendererFunc(func(s Snapshot) {
		seen = len(g.Columns())
	}))

	_, err := g.Load(LoadOptions{RowCount: 20})
	require.NoError(t, err)
	assert.Equal(t, 5, seen)
}

type rendererFunc func(Snapshot)

func (f rendererFunc) Detach()           {}
func (f rendererFunc) Attach(s Snapshot) { f(s) }

func TestGridNewColumnCoverageConverges(t *testing.T) {
	g := newTestGrid(12)

	carried, total := 0, 0
	for i := 0; i < 10; i++ {
		_, err := g.Load(LoadOptions{RowCount: 2000, Shuffle: true})
		require.NoError(t, err)
		snap, err := g.AddColumn("")
		require.NoError(t, err)

		key := snap.Keys()[len(snap.Keys())-1]
		require.True(t, strings.HasPrefix(key, "Key"))
		for _, r := range snap.Rows {
			if r.DynamicItem.Has(key) {
				carried++
			}
			total++
		}
		cov := snap.Coverage().Columns
		assert.Equal(t, key, cov[len(cov)-1].Key)
		requireColumnsCoverRows(t, snap)
	}

	assert.InDelta(t, 0.5, float64(carried)/float64(total), 0.02)
}

func TestGridConcurrentReaders(t *testing.T) {
	g := newTestGrid(13)
	_, err := g.Load(LoadOptions{RowCount: 100})
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				g.View(func(s Snapshot) {
					cols := make(map[string]bool, len(s.Columns))
					for _, c := range s.Columns {
						cols[c.Key] = true
					}
					for _, k := range DiscoverKeys(s.Rows) {
						if !cols[k] {
							t.Errorf("key %s visible before its column", k)
						}
					}
				})
			}
		}()
	}

	for i := 0; i < 20; i++ {
		_, err := g.AddColumn("")
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()

	assert.Len(t, g.Columns(), 25)
}
