package editor

import (
	"cmp"
	"regexp"
	"strings"

	"github.com/rdleal/intervalst/interval"
)

// FindOptions selects the matching mode for find and replace.
type FindOptions struct {
	MatchCase bool
	WholeWord bool
	Regex     bool
}

// TextRange is a half-open byte range [Start, End) in the document.
type TextRange struct {
	Start, End int
}

// MatchSet holds the result of the last search. An interval tree supports
// the viewport queries the host issues while painting match highlights.
type MatchSet struct {
	ranges []TextRange
	tree   *interval.MultiValueSearchTree[TextRange, int]
}

func (m *MatchSet) set(ranges []TextRange) {
	m.ranges = ranges
	m.tree = interval.NewMultiValueSearchTree[TextRange](func(a, b int) int {
		return cmp.Compare(a, b)
	})
	for _, r := range ranges {
		if r.End > r.Start {
			m.tree.Insert(r.Start, r.End, r)
		}
	}
}

func (m *MatchSet) clear() {
	m.ranges = nil
	m.tree = nil
}

// All returns every match of the last search in document order.
func (m *MatchSet) All() []TextRange {
	return m.ranges
}

// InRange returns the matches overlapping [start, end).
func (m *MatchSet) InRange(start, end int) []TextRange {
	if m.tree == nil || end <= start {
		return nil
	}
	all, _ := m.tree.AllIntersections(start, end)
	return all
}

// Matches exposes the current match set.
func (ed *Editor) Matches() *MatchSet {
	return &ed.matches
}

// matchAll collects every non-overlapping occurrence of query, together
// with the per-match replacement when repl is non-nil (regex replacements
// expand $1-style references). An invalid regex yields no matches.
func (ed *Editor) matchAll(query string, opts FindOptions, repl *string) ([]TextRange, [][]byte) {
	if query == "" {
		return nil, nil
	}
	doc := ed.src.Text(ed.scratch)
	ed.scratch = doc

	wholeWordAt := func(s, e int) bool {
		if !opts.WholeWord {
			return true
		}
		return (s == 0 || !isWordChar(doc[s-1])) && (e == len(doc) || !isWordChar(doc[e]))
	}

	var ranges []TextRange
	var repls [][]byte

	if opts.Regex {
		pattern := query
		if !opts.MatchCase {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, nil
		}
		for _, m := range re.FindAllSubmatchIndex(doc, -1) {
			if m[1] <= m[0] || !wholeWordAt(m[0], m[1]) {
				continue
			}
			ranges = append(ranges, TextRange{m[0], m[1]})
			if repl != nil {
				repls = append(repls, re.Expand(nil, []byte(*repl), doc, m))
			}
		}
		return ranges, repls
	}

	haystack := string(doc)
	needle := query
	if !opts.MatchCase {
		haystack = strings.ToLower(haystack)
		needle = strings.ToLower(needle)
	}
	for from := 0; from <= len(haystack)-len(needle); {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			break
		}
		s := from + idx
		e := s + len(needle)
		if wholeWordAt(s, e) {
			ranges = append(ranges, TextRange{s, e})
			if repl != nil {
				repls = append(repls, []byte(*repl))
			}
			from = e
		} else {
			from = s + 1
		}
	}
	return ranges, repls
}

// FindAll records and returns every match of query in the document.
func (ed *Editor) FindAll(query string, opts FindOptions) []TextRange {
	ranges, _ := ed.matchAll(query, opts, nil)
	ed.matches.set(ranges)
	return ranges
}

// Find locates the nearest occurrence of query from start in the given
// direction, wrapping around the document exactly once. It reports false
// when the document holds no occurrence or the regex is invalid; the
// cursor set is left untouched either way.
func (ed *Editor) Find(start int, query string, forward bool, opts FindOptions) (TextRange, bool) {
	ranges, _ := ed.matchAll(query, opts, nil)
	if len(ranges) == 0 {
		return TextRange{}, false
	}

	if forward {
		for _, r := range ranges {
			if r.Start >= start {
				return r, true
			}
		}
		return ranges[0], true
	}
	for i := len(ranges) - 1; i >= 0; i-- {
		if ranges[i].Start < start {
			return ranges[i], true
		}
	}
	return ranges[len(ranges)-1], true
}

// ReplaceAll replaces every occurrence of query in one atomic batch.
// Matches are collected over the whole document first, then applied from
// last to first so earlier positions stay valid; replaced text is never
// re-searched. Returns the number of replacements.
func (ed *Editor) ReplaceAll(query, repl string, opts FindOptions) int {
	ed.commitPadding()
	ranges, repls := ed.matchAll(query, opts, &repl)
	if len(ranges) == 0 {
		return 0
	}

	batch := EditBatch{before: ed.cursors.clone()}
	for i := len(ranges) - 1; i >= 0; i-- {
		r := ranges[i]
		ed.applyErase(r.Start, r.End-r.Start, &batch)
		ed.applyInsert(r.Start, repls[i], &batch)
	}
	ed.reindex()

	final := ranges[0].Start
	x := ed.XOf(final)
	ed.cursors.Reset(Cursor{Head: final, Anchor: final, DesiredX: x, AnchorX: x})
	ed.matches.clear()
	ed.commit(batch)
	return len(ranges)
}

// SelectNextOccurrence implements the add-next-match gesture: with no
// selection the word at the primary caret is selected; otherwise the next
// occurrence of the selected bytes gains a cursor. Cursors are not merged
// during the gesture.
func (ed *Editor) SelectNextOccurrence() {
	ed.rollbackPadding()
	p := ed.cursors.Primary()

	if !p.HasSelection() {
		start, end := ed.wordAt(p.Head)
		if start == end {
			return
		}
		p.Anchor, p.Head = start, end
		p.DesiredX = ed.XOf(end)
		p.AnchorX = ed.XOf(start)
		return
	}

	query := string(ed.src.Range(p.Start(), p.End()-p.Start()))
	doc := string(ed.src.Text(ed.scratch))

	covered := func(s, e int) bool {
		for i := range ed.cursors.list {
			c := &ed.cursors.list[i]
			if c.Start() <= s && c.End() >= e {
				return true
			}
		}
		return false
	}

	from := p.End()
	wrapped := false
	for {
		idx := strings.Index(doc[from:], query)
		if idx < 0 {
			if wrapped {
				return
			}
			wrapped = true
			from = 0
			continue
		}
		s := from + idx
		e := s + len(query)
		if wrapped && s >= p.Start() {
			// back at the starting selection: the wrap is complete
			return
		}
		if !covered(s, e) {
			ed.cursors.Add(Cursor{
				Head: e, Anchor: s,
				DesiredX: ed.XOf(e), AnchorX: ed.XOf(s),
			})
			ed.cursors.Rectangular = false
			return
		}
		from = s + 1
	}
}
