package editor

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ConvertCase maps every selection to upper or lower case using the
// Unicode-aware case mapper. Selections whose mapping equals the input are
// left untouched; the rest are replaced, and cursors downstream shift by
// the length delta (case mapping can change byte length, e.g. ß → SS).
func (ed *Editor) ConvertCase(upper bool) {
	ed.commitPadding()
	if !ed.cursors.anySelection() {
		return
	}

	caser := cases.Lower(language.Und)
	if upper {
		caser = cases.Upper(language.Und)
	}

	batch := EditBatch{before: ed.cursors.clone()}

	for _, idx := range ed.cursors.indicesByStartDesc() {
		c := ed.cursors.At(idx)
		if !c.HasSelection() {
			continue
		}
		start := c.Start()
		sel := ed.src.Range(start, c.End()-start)
		mapped := caser.String(string(sel))
		if mapped == string(sel) {
			continue
		}

		forward := c.forward()
		ed.applyErase(start, len(sel), &batch)
		ed.applyInsert(start, []byte(mapped), &batch)
		if forward {
			c.Anchor, c.Head = start, start+len(mapped)
		} else {
			c.Anchor, c.Head = start+len(mapped), start
		}
		ed.reindex()
		c.DesiredX = ed.XOf(c.Head)
		c.AnchorX = ed.XOf(c.Anchor)
		c.Virtual = false
	}

	if len(batch.ops) == 0 {
		return
	}
	ed.commit(batch)
}
