// Command mosaic is a terminal host for the editing core. It takes a single
// optional positional argument, the file to open, and exits 0 on a normal
// close or 1 when that initial open fails.
package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/image/math/fixed"
	"golang.org/x/term"

	"github.com/mosaictext/mosaic/editor"
	"github.com/mosaictext/mosaic/fileio"
	"github.com/mosaictext/mosaic/shaper"
)

var (
	gutterStyle = lipgloss.NewStyle().Faint(true)
	selStyle    = lipgloss.NewStyle().Reverse(true)
	caretStyle  = lipgloss.NewStyle().Reverse(true).Bold(true)
	statusStyle = lipgloss.NewStyle().Reverse(true)
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

const gutterWidth = 5

// clipboard is the in-process fallback transport: the flag travels with the
// text so rectangular payloads round-trip spatially. An unavailable OS
// clipboard is a no-op, never an error.
type clipboard struct {
	text string
	rect bool
}

type inputMode uint8

const (
	modeEdit inputMode = iota
	modeFind
	modeReplace
)

type model struct {
	ed   *editor.Editor
	sh   *shaper.Monospace
	doc  *fileio.Document
	path string

	clip clipboard

	width, height int
	top           int // first visible line

	mode      inputMode
	prompt    string
	replQuery string

	selecting bool
	selAnchor int

	showHelp bool
	status   string
}

func newModel(path string) (*model, error) {
	sh := shaper.NewMonospace(fixed.I(1))
	m := &model{
		ed:     editor.New(sh),
		sh:     sh,
		path:   path,
		height: 24,
		width:  80,
	}
	if path == "" {
		return m, nil
	}

	doc, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	m.doc = doc
	m.ed.Load(doc.Bytes)
	m.status = fmt.Sprintf("%s (%s)", path, doc.Encoding)
	return m, nil
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if m.mode != modeEdit {
			return m, m.updatePrompt(msg)
		}
		return m, m.updateEdit(msg)
	case tea.MouseMsg:
		m.updateMouse(msg)
	}
	return m, nil
}

func (m *model) updateEdit(msg tea.KeyMsg) tea.Cmd {
	m.status = ""

	switch msg.String() {
	case "ctrl+q":
		return tea.Quit
	case "ctrl+s":
		m.save()
	case "ctrl+z":
		m.ed.Undo()
	case "ctrl+y":
		m.ed.Redo()
	case "ctrl+c":
		if text, rect := m.ed.Copy(); text != "" {
			m.clip = clipboard{text, rect}
		}
	case "ctrl+x":
		if text, rect := m.ed.Cut(); text != "" {
			m.clip = clipboard{text, rect}
		}
	case "ctrl+v":
		m.ed.Paste(m.clip.text, m.clip.rect)
	case "ctrl+a":
		m.ed.SelectAll()
	case "ctrl+d":
		m.ed.SelectNextOccurrence()
	case "ctrl+f":
		m.mode = modeFind
		m.prompt = ""
	case "ctrl+r":
		m.mode = modeReplace
		m.prompt = ""
		m.replQuery = ""
	case "ctrl+u":
		m.ed.ConvertCase(true)
	case "ctrl+l":
		m.ed.ConvertCase(false)
	case "ctrl+k":
		m.ed.DeleteLines()
	case "enter":
		m.ed.Insert("\n")
	case "tab":
		m.ed.Insert("\t")
	case "backspace":
		m.ed.Backspace()
	case "delete":
		m.ed.DeleteForward()
	case "ctrl+backspace":
		m.ed.DeleteWordLeft()
	case "ctrl+delete":
		m.ed.DeleteWordRight()
	case "left":
		m.ed.MoveLeft(false)
	case "right":
		m.ed.MoveRight(false)
	case "shift+left":
		m.ed.MoveLeft(true)
	case "shift+right":
		m.ed.MoveRight(true)
	case "ctrl+left":
		m.ed.MoveWordLeft(false)
	case "ctrl+right":
		m.ed.MoveWordRight(false)
	case "ctrl+shift+left":
		m.ed.MoveWordLeft(true)
	case "ctrl+shift+right":
		m.ed.MoveWordRight(true)
	case "up":
		m.ed.MoveVertical(-1, false)
	case "down":
		m.ed.MoveVertical(1, false)
	case "shift+up":
		m.ed.MoveVertical(-1, true)
	case "shift+down":
		m.ed.MoveVertical(1, true)
	case "pgup":
		m.ed.MoveVertical(-(m.height - 2), false)
	case "pgdown":
		m.ed.MoveVertical(m.height-2, false)
	case "home":
		m.ed.MoveLineStart(false)
	case "end":
		m.ed.MoveLineEnd(false)
	case "shift+home":
		m.ed.MoveLineStart(true)
	case "shift+end":
		m.ed.MoveLineEnd(true)
	case "ctrl+home":
		m.ed.MoveDocStart(false)
	case "ctrl+end":
		m.ed.MoveDocEnd(false)
	case "alt+up":
		m.ed.MoveLines(-1)
	case "alt+down":
		m.ed.MoveLines(1)
	case "alt+shift+up":
		m.ed.ExtendRectSelection(-1, 0)
	case "alt+shift+down":
		m.ed.ExtendRectSelection(1, 0)
	case "alt+shift+left":
		m.ed.ExtendRectSelection(0, -1)
	case "alt+shift+right":
		m.ed.ExtendRectSelection(0, 1)
	case "alt+d":
		m.ed.DuplicateLines(true)
	case "alt+u":
		m.ed.DuplicateLines(false)
	case "esc":
		m.ed.ClearSelection()
	case "f1":
		m.showHelp = !m.showHelp
	case "f2":
		m.zoom(-1)
	case "f3":
		m.zoom(1)
	default:
		if msg.Type == tea.KeyRunes && !msg.Alt {
			m.ed.Insert(string(msg.Runes))
		}
	}

	m.scrollToCaret()
	return nil
}

func (m *model) updatePrompt(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = modeEdit
		m.prompt = ""
	case "enter":
		switch m.mode {
		case modeFind:
			m.runFind(m.prompt)
			m.mode = modeEdit
		case modeReplace:
			if m.replQuery == "" {
				m.replQuery = m.prompt
				m.prompt = ""
			} else {
				n := m.ed.ReplaceAll(m.replQuery, m.prompt, editor.FindOptions{})
				m.status = fmt.Sprintf("%d replaced", n)
				m.mode = modeEdit
			}
		}
	case "backspace":
		if len(m.prompt) > 0 {
			m.prompt = m.prompt[:len(m.prompt)-1]
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.prompt += string(msg.Runes)
		}
	}
	m.scrollToCaret()
	return nil
}

func (m *model) runFind(query string) {
	if query == "" {
		return
	}
	start := m.ed.Cursors().Primary().End()
	r, ok := m.ed.Find(start, query, true, editor.FindOptions{})
	if !ok {
		m.status = "no matches"
		return
	}
	m.ed.FindAll(query, editor.FindOptions{})
	m.ed.SetCaret(r.End, r.Start)
	m.status = fmt.Sprintf("%d matches", len(m.ed.Matches().All()))
}

func (m *model) updateMouse(msg tea.MouseMsg) {
	line := m.top + msg.Y
	col := msg.X - gutterWidth
	if col < 0 {
		col = 0
	}
	x := fixed.I(col)
	pos := m.ed.PosFromLineX(line, x)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		switch {
		case msg.Alt:
			m.ed.BeginRectSelection(line, x)
		case m.ed.PointerDown(pos, float32(msg.X), float32(msg.Y)):
			// maybe a text drag; resolved on release
		case msg.Ctrl:
			m.ed.AddCaret(pos)
		case msg.Shift:
			m.ed.SetCaret(pos, m.selAnchor)
		default:
			m.selecting = true
			m.selAnchor = pos
			m.ed.SetCaret(pos, pos)
		}
	case tea.MouseActionMotion:
		switch {
		case m.ed.IsRectSelecting():
			m.ed.DragRectSelection(line, x)
		case m.selecting:
			m.ed.SetCaret(pos, m.selAnchor)
		default:
			m.ed.PointerMove(pos, float32(msg.X), float32(msg.Y))
		}
	case tea.MouseActionRelease:
		if m.ed.IsRectSelecting() {
			m.ed.EndRectSelection()
		} else if !m.selecting {
			m.ed.PointerUp(pos)
		}
		m.selecting = false
	}
	m.scrollToCaret()
}

func (m *model) zoom(delta int) {
	old := m.sh.CellWidth()
	next := old + fixed.I(delta)
	if next < fixed.I(1) {
		next = fixed.I(1)
	}
	m.sh.SetCellWidth(next)
	m.ed.RescaleX(old, next)
}

func (m *model) save() {
	if m.path == "" {
		m.status = "no file name"
		return
	}
	if err := fileio.Save(m.path, m.ed.Reader()); err != nil {
		m.status = err.Error()
		return
	}
	m.ed.MarkSaved()

	// re-open the just-written file so the piece table rides the fresh
	// mapping instead of accumulated add-buffer bytes
	doc, err := fileio.Open(m.path)
	if err == nil && len(doc.Bytes) == m.ed.Len() {
		m.ed.Rebase(doc.Bytes)
		if m.doc != nil {
			m.doc.Close()
		}
		m.doc = doc
	} else if err == nil {
		doc.Close()
	}
	m.status = "saved " + m.path
}

func (m *model) scrollToCaret() {
	line := m.ed.Lines().LineOf(m.ed.Cursors().Primary().Head)
	visible := m.height - 2
	if visible < 1 {
		visible = 1
	}
	if line < m.top {
		m.top = line
	}
	if line >= m.top+visible {
		m.top = line - visible + 1
	}
	if m.top < 0 {
		m.top = 0
	}
}

// selectionSpans returns the selected byte ranges intersecting the line
// range [start, end), line-local.
func (m *model) selectionSpans(start, end int) [][2]int {
	var spans [][2]int
	for _, c := range m.ed.Cursors().All() {
		s, e := c.Start(), c.End()
		if s >= end || e <= start || s == e {
			continue
		}
		spans = append(spans, [2]int{max(s, start) - start, min(e, end) - start})
	}
	return spans
}

func (m *model) renderLine(i int) string {
	start, lineEnd := m.ed.Lines().LineRange(i)
	end := lineEnd
	text := m.ed.Range(start, end-start)
	for len(text) > 0 && (text[len(text)-1] == '\n' || text[len(text)-1] == '\r') {
		text = text[:len(text)-1]
		end--
	}

	var sb strings.Builder
	sb.WriteString(gutterStyle.Render(fmt.Sprintf("%*d ", gutterWidth-1, i+1)))

	spans := m.selectionSpans(start, end)
	carets := map[int]bool{}
	for _, c := range m.ed.Cursors().All() {
		if c.Head >= start && c.Head <= end {
			carets[c.Head-start] = true
		}
	}

	inSpan := func(off int) bool {
		for _, s := range spans {
			if off >= s[0] && off < s[1] {
				return true
			}
		}
		return false
	}

	for off := 0; off <= len(text); {
		if carets[off] && off == len(text) {
			sb.WriteString(caretStyle.Render(" "))
			break
		}
		if off == len(text) {
			break
		}
		next := off + 1
		for next < len(text) && text[next]&0xC0 == 0x80 {
			next++
		}
		ch := string(text[off:next])
		if ch == "\t" {
			ch = "    "
		}
		switch {
		case carets[off]:
			sb.WriteString(caretStyle.Render(ch))
		case inSpan(off):
			sb.WriteString(selStyle.Render(ch))
		default:
			sb.WriteString(ch)
		}
		off = next
	}
	return runewidth.Truncate(sb.String(), m.width*4, "")
}

func (m *model) View() string {
	var sb strings.Builder

	visible := m.height - 2
	if visible < 1 {
		visible = 1
	}
	lineCount := m.ed.Lines().Count()
	for i := m.top; i < m.top+visible; i++ {
		if i < lineCount {
			sb.WriteString(m.renderLine(i))
		}
		sb.WriteByte('\n')
	}

	if m.showHelp {
		sb.WriteString(helpStyle.Render(
			"^S save  ^Z undo  ^Y redo  ^F find  ^R replace  ^D next match  alt+arrows move/rect  ^Q quit"))
		sb.WriteByte('\n')
	}

	switch m.mode {
	case modeFind:
		sb.WriteString(statusStyle.Render("find: " + m.prompt))
	case modeReplace:
		if m.replQuery == "" {
			sb.WriteString(statusStyle.Render("replace: " + m.prompt))
		} else {
			sb.WriteString(statusStyle.Render("replace " + m.replQuery + " with: " + m.prompt))
		}
	default:
		name := m.path
		if name == "" {
			name = "[untitled]"
		}
		dirty := ""
		if m.ed.IsModified() {
			dirty = " *"
		}
		left := fmt.Sprintf(" %s%s", name, dirty)
		right := fmt.Sprintf("%d cursors  ln %d  %s ",
			m.ed.Cursors().Len(),
			m.ed.Lines().LineOf(m.ed.Cursors().Primary().Head)+1,
			m.status)
		pad := m.width - lipgloss.Width(left) - lipgloss.Width(right)
		if pad < 1 {
			pad = 1
		}
		sb.WriteString(statusStyle.Render(left + strings.Repeat(" ", pad) + right))
	}

	return sb.String()
}

func main() {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "mosaic: stdin is not a terminal")
		os.Exit(1)
	}

	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	m, err := newModel(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mosaic: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if m.doc != nil {
			m.doc.Close()
		}
	}()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "mosaic: %v\n", err)
		os.Exit(1)
	}
}
