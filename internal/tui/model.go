package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tiledash/internal/board"
	"tiledash/internal/docs"
	"tiledash/internal/model"
	"tiledash/internal/store"
	"tiledash/internal/urlutil"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type Options struct {
	Board     *board.Board
	Dir       string
	BoardName string
	Log       *zap.Logger
}

type Mode int

const (
	ModeNormal Mode = iota
	ModeForm
	ModeConfirmDelete
	ModeHelp
)

// RenameState tracks the group rename prompt. The group being renamed is
// captured when the prompt opens, so later board changes cannot retarget it.
type RenameState int

const (
	RenameIdle RenameState = iota
	Renaming
)

// boardChangedMsg is sent when the board publishes a change made elsewhere
// (web server, file watcher).
type boardChangedMsg struct{}

type Model struct {
	opts Options
	log  *zap.Logger
	keys keyMap
	help help.Model

	tiles    []model.Tile
	sections []store.Section
	cursorID string

	width  int
	height int

	mode Mode
	form tileForm

	rename      RenameState
	renameFrom  string
	renameInput textinput.Model

	helpText  string
	status    string
	statusErr bool
}

func NewModel(opts Options) Model {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	ri := textinput.New()
	ri.Prompt = "Rename group: "
	ri.CharLimit = 256

	m := Model{
		opts:        opts,
		log:         log,
		keys:        defaultKeyMap(),
		help:        help.New(),
		width:       80,
		height:      24,
		renameInput: ri,
	}
	m.refresh()
	return m
}

func (m Model) Cursor() string           { return m.cursorID }
func (m Model) Mode() Mode               { return m.mode }
func (m Model) RenameState() RenameState { return m.rename }
func (m Model) Status() string           { return m.status }

func (m Model) Init() tea.Cmd { return nil }

// refresh re-reads the board and keeps the cursor on the same tile id,
// falling back to the nearest position.
func (m *Model) refresh() {
	prev := m.cursorIndex()
	m.tiles = m.opts.Board.Tiles()
	m.sections = store.Sections(m.tiles)
	if len(m.tiles) == 0 {
		m.cursorID = ""
		return
	}
	for _, t := range m.tiles {
		if t.ID == m.cursorID {
			return
		}
	}
	if prev < 0 {
		prev = 0
	}
	if prev >= len(m.tiles) {
		prev = len(m.tiles) - 1
	}
	m.cursorID = m.tiles[prev].ID
}

func (m Model) cursorIndex() int {
	for i, t := range m.tiles {
		if t.ID == m.cursorID {
			return i
		}
	}
	return -1
}

// cursorPos returns the cursor's section and position within it.
func (m Model) cursorPos() (sec int, pos int) {
	idx := m.cursorIndex()
	for si, s := range m.sections {
		for pi, i := range s.Indexes {
			if i == idx {
				return si, pi
			}
		}
	}
	return -1, -1
}

func (m Model) current() (model.Tile, bool) {
	idx := m.cursorIndex()
	if idx < 0 {
		return model.Tile{}, false
	}
	return m.tiles[idx], true
}

func (m Model) currentGroup() string {
	if t, ok := m.current(); ok {
		return t.Group
	}
	return ""
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
	m.log.Warn("tui action failed", zap.Error(err))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.helpText = ""
		return m, nil

	case boardChangedMsg:
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.rename == Renaming {
			return m.updateRename(msg)
		}
		switch m.mode {
		case ModeForm:
			return m.updateForm(msg)
		case ModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case ModeHelp:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			m.mode = ModeNormal
			return m, nil
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Left):
		if i := m.cursorIndex(); i > 0 {
			m.cursorID = m.tiles[i-1].ID
		}
	case key.Matches(msg, m.keys.Right):
		if i := m.cursorIndex(); i >= 0 && i < len(m.tiles)-1 {
			m.cursorID = m.tiles[i+1].ID
		}
	case key.Matches(msg, m.keys.Up):
		m.jumpSection(-1)
	case key.Matches(msg, m.keys.Down):
		m.jumpSection(1)

	case key.Matches(msg, m.keys.MoveLeft), key.Matches(msg, m.keys.MoveRight):
		dir := 1
		if key.Matches(msg, m.keys.MoveLeft) {
			dir = -1
		}
		if m.cursorID == "" {
			return m, nil
		}
		if _, err := m.opts.Board.MoveTileByID(ctx, m.cursorID, dir); err != nil {
			m.setError(err)
		}
		m.refresh()

	case key.Matches(msg, m.keys.GroupUp), key.Matches(msg, m.keys.GroupDown):
		dir := 1
		if key.Matches(msg, m.keys.GroupUp) {
			dir = -1
		}
		g := m.currentGroup()
		if g == "" {
			return m, nil
		}
		if _, err := m.opts.Board.MoveGroup(ctx, g, dir, nil); err != nil {
			m.setError(err)
		}
		m.refresh()

	case key.Matches(msg, m.keys.Add):
		m.form = newTileForm(nil, m.currentGroup())
		m.mode = ModeForm
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Edit):
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		m.form = newTileForm(&t, "")
		m.mode = ModeForm
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.current(); ok {
			m.mode = ModeConfirmDelete
		}

	case key.Matches(msg, m.keys.Rename):
		g := m.currentGroup()
		if g == "" {
			return m, nil
		}
		m.rename = Renaming
		m.renameFrom = g
		m.renameInput.SetValue(g)
		m.renameInput.CursorEnd()
		m.renameInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Backup):
		path, err := m.writeBackup(time.Now())
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("backup written to %s", path)

	case key.Matches(msg, m.keys.Open):
		if t, ok := m.current(); ok {
			if err := urlutil.Open(t.URL); err != nil {
				m.setError(err)
			}
		}

	case key.Matches(msg, m.keys.Reload):
		m.opts.Board.Reload(ctx)
		m.refresh()
		m.setStatus("reloaded")

	case key.Matches(msg, m.keys.Help):
		m.mode = ModeHelp
	}
	return m, nil
}

// jumpSection moves the cursor to the same column in the previous or next group.
func (m *Model) jumpSection(dir int) {
	si, pi := m.cursorPos()
	if si < 0 {
		return
	}
	ni := si + dir
	if ni < 0 || ni >= len(m.sections) {
		return
	}
	idxs := m.sections[ni].Indexes
	if pi >= len(idxs) {
		pi = len(idxs) - 1
	}
	m.cursorID = m.tiles[idxs[pi]].ID
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+g":
		m.mode = ModeNormal
		return m, nil
	case "tab", "down":
		m.form.setFocus(m.form.focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.form.setFocus(m.form.focus - 1)
		return m, nil
	case "enter":
		in, err := m.form.input()
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		t, err := m.opts.Board.Save(context.Background(), in, m.form.editID)
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		m.mode = ModeNormal
		m.cursorID = t.ID
		m.refresh()
		if m.form.editID != "" {
			m.setStatus("updated %s", t.Name)
		} else {
			m.setStatus("added %s", t.Name)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = ModeNormal
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		if err := m.opts.Board.Delete(context.Background(), t.ID); err != nil {
			m.setError(err)
			return m, nil
		}
		m.refresh()
		m.setStatus("deleted %s", t.Name)
	case "n", "N", "esc", "ctrl+g", "q":
		m.mode = ModeNormal
	}
	return m, nil
}

func (m Model) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+g":
		m.rename = RenameIdle
		m.renameInput.Blur()
		return m, nil
	case "enter":
		if err := m.opts.Board.RenameGroup(context.Background(), m.renameFrom, m.renameInput.Value()); err != nil {
			m.setError(err)
			return m, nil
		}
		m.rename = RenameIdle
		m.renameInput.Blur()
		// RenameGroup flushes without notifying; tell other views ourselves.
		m.opts.Board.Refresh()
		m.refresh()
		m.setStatus("renamed %s to %s", m.renameFrom, strings.TrimSpace(m.renameInput.Value()))
		return m, nil
	}
	var cmd tea.Cmd
	m.renameInput, cmd = m.renameInput.Update(msg)
	return m, cmd
}

// writeBackup writes a backup document into the board directory.
func (m Model) writeBackup(now time.Time) (string, error) {
	doc, err := m.opts.Board.Backup()
	if err != nil {
		return "", err
	}
	dir := m.opts.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, store.BackupFileName(now))
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", err
	}
	m.log.Info("backup written", zap.String("path", path))
	return path, nil
}

func (m *Model) renderedHelp() string {
	if m.helpText != "" {
		return m.helpText
	}
	md, ok := docs.Get("keys")
	if !ok {
		return m.help.FullHelpView(m.keys.FullHelp())
	}
	style := "dark"
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		style = "ascii"
	}
	out, err := docs.Render(md, m.width-4, style)
	if err != nil {
		m.log.Debug("render help", zap.Error(err))
		return md
	}
	m.helpText = out
	return out
}
