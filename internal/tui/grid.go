package tui

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"gridhost/internal/engine"
)

const helpText = " [black:gold]r[-:-] reload  [black:gold]a[-:-] add column  [black:gold]c[-:-] clear  [black:gold]q[-:-] quit "

// View is a terminal renderer for a Grid. Grid operations are issued from
// the tview event loop, so Attach/Detach run on that goroutine as well.
type View struct {
	app    *tview.Application
	table  *tview.Table
	status *tview.TextView
	root   *tview.Flex

	grid    *engine.Grid
	load    engine.LoadOptions
	message string
}

func New(grid *engine.Grid, load engine.LoadOptions) *View {
	v := &View{
		app:     tview.NewApplication(),
		grid:    grid,
		load:    load,
		message: "Ready.",
	}
	v.build()
	grid.Subscribe(v)
	return v
}

func (v *View) build() {
	v.table = tview.NewTable().
		SetBorders(false).
		SetFixed(1, 3).
		SetSelectable(true, false)
	v.table.SetBorder(true).SetTitle(" DynamicItem grid ")

	v.status = tview.NewTextView().SetDynamicColors(true)

	v.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.table, 0, 1, true).
		AddItem(v.status, 1, 0, false)

	v.app.SetInputCapture(v.handleGlobalKeys)
	v.refreshStatus()
}

// Run blocks until the user quits.
func (v *View) Run() error {
	tview.Styles.PrimitiveBackgroundColor = tcell.ColorBlack
	tview.Styles.BorderColor = tcell.ColorGold
	tview.Styles.TitleColor = tcell.ColorGold
	return v.app.SetRoot(v.root, true).EnableMouse(true).Run()
}

func (v *View) Detach() {
	v.table.Clear()
	v.message = "Detached."
	v.refreshStatus()
}

func (v *View) Attach(s engine.Snapshot) {
	v.table.Clear()
	tbl := s.Table()

	for col, h := range tbl.Header {
		v.table.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorGold).
			SetSelectable(false).
			SetExpansion(1))
	}
	for r, row := range tbl.Rows {
		for col, c := range row {
			// a missing key is an empty cell
			v.table.SetCell(r+1, col, tview.NewTableCell(c.Text))
		}
	}
	v.message = fmt.Sprintf("%d rows, %d columns (generation %d)", len(s.Rows), len(s.Columns), s.Generation)
	v.refreshStatus()
}

func (v *View) refreshStatus() {
	v.status.SetText(helpText + " " + v.message)
}

func (v *View) handleGlobalKeys(ev *tcell.EventKey) *tcell.EventKey {
	if ev.Key() == tcell.KeyCtrlC {
		v.app.Stop()
		return nil
	}
	if ev.Key() != tcell.KeyRune {
		return ev
	}
	if ev.Rune() == 'q' {
		v.app.Stop()
		return nil
	}
	if v.command(ev.Rune()) {
		return nil
	}
	return ev
}

// command runs the grid action bound to key and reports whether one was.
func (v *View) command(key rune) bool {
	switch key {
	case 'r':
		v.grid.Clear()
		if _, err := v.grid.Load(v.load); err != nil && !errors.Is(err, engine.ErrInvalidRowCount) {
			v.fail(err)
		}
	case 'a':
		if _, err := v.grid.AddColumn(""); err != nil {
			v.fail(err)
		}
	case 'c':
		v.grid.Clear()
	default:
		return false
	}
	return true
}

func (v *View) fail(err error) {
	v.message = "[red]" + tview.Escape(err.Error()) + "[-]"
	v.refreshStatus()
}
