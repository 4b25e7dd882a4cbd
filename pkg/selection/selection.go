// Package selection converts editor selection marks into a normalized text
// payload. It is pure: marks, mode, and buffer lines all arrive in the
// request, nothing is read from the editor here.
package selection

import (
	"strings"
)

// Mode identifies how the selection was made in the editor.
type Mode string

const (
	// ModeChar is a character-wise selection (v).
	ModeChar Mode = "char"
	// ModeLine is a line-wise selection (V).
	ModeLine Mode = "line"
	// ModeBlock is a block-wise selection (ctrl-v).
	ModeBlock Mode = "block"
)

// ColEOL is the sentinel column meaning "end of line". Editors report it for
// line-wise motions and for $-extended block selections; it always resolves
// to the line's length.
const ColEOL = 1<<31 - 1

// Mark is a position in a buffer. Line is 1-based; Col is a 0-based byte
// offset into the line. Line 0 means the mark is unset.
type Mark struct {
	Line int
	Col  int
}

// Request carries everything needed to extract a selection.
type Request struct {
	Mode       Mode
	Start      Mark
	End        Mark
	BufferName string
	Lines      []string // buffer lines covering at least Start.Line..End.Line

	// ExpandTabs replaces tabs in the extracted text with TabWidth spaces,
	// mirroring the buffer's expandtab/tabstop settings.
	ExpandTabs bool
	TabWidth   int
}

// Selection is the extracted result consumed by the send pipeline.
type Selection struct {
	BufferName string
	StartLine  int // 1-based, inclusive
	EndLine    int // 1-based, inclusive
	Text       string
}

// Extract computes the selected text for the request. It returns false when
// the selection is empty: both marks unset, marks outside the buffer, or a
// computed text of "".
func Extract(req Request) (*Selection, bool) {
	start, end := req.Start, req.End
	if start.Line == 0 && end.Line == 0 {
		return nil, false
	}

	// The user may have selected backwards.
	if start.Line > end.Line || (start.Line == end.Line && start.Col > end.Col) {
		start, end = end, start
	}

	if start.Line < 1 || start.Line > len(req.Lines) {
		return nil, false
	}
	if end.Line > len(req.Lines) {
		end.Line = len(req.Lines)
	}

	var text string
	switch req.Mode {
	case ModeLine:
		text = strings.Join(req.Lines[start.Line-1:end.Line], "\n")
	case ModeBlock:
		text = extractBlock(req.Lines, start, end)
	default:
		text = extractChar(req.Lines, start, end)
	}

	if req.ExpandTabs && strings.Contains(text, "\t") {
		width := req.TabWidth
		if width <= 0 {
			width = 8
		}
		text = strings.ReplaceAll(text, "\t", strings.Repeat(" ", width))
	}

	if text == "" {
		return nil, false
	}

	return &Selection{
		BufferName: req.BufferName,
		StartLine:  start.Line,
		EndLine:    end.Line,
		Text:       text,
	}, true
}

// extractBlock slices the same column span out of every line in the range.
func extractBlock(lines []string, start, end Mark) string {
	left := start.Col
	right := end.Col
	if left > right {
		left, right = right, left
	}

	parts := make([]string, 0, end.Line-start.Line+1)
	for ln := start.Line; ln <= end.Line; ln++ {
		line := lines[ln-1]
		lo := clamp(left, len(line))
		hi := endBound(right, len(line))
		parts = append(parts, line[lo:hi])
	}
	return strings.Join(parts, "\n")
}

// extractChar slices from the start mark to the end mark inclusive.
func extractChar(lines []string, start, end Mark) string {
	if start.Line == end.Line {
		line := lines[start.Line-1]
		lo := clamp(start.Col, len(line))
		hi := endBound(end.Col, len(line))
		if lo > hi {
			lo = hi
		}
		return line[lo:hi]
	}

	parts := make([]string, 0, end.Line-start.Line+1)

	first := lines[start.Line-1]
	parts = append(parts, first[clamp(start.Col, len(first)):])

	for ln := start.Line + 1; ln < end.Line; ln++ {
		parts = append(parts, lines[ln-1])
	}

	last := lines[end.Line-1]
	parts = append(parts, last[:endBound(end.Col, len(last))])

	return strings.Join(parts, "\n")
}

// clamp bounds a start column to the line length.
func clamp(col, max int) int {
	if col < 0 {
		return 0
	}
	if col > max {
		return max
	}
	return col
}

// endBound resolves an inclusive end column to an exclusive slice bound: the
// character under the cursor is included, and the ColEOL sentinel (or any
// column past the line) resolves to the line's length.
func endBound(col, max int) int {
	if col >= ColEOL || col >= max {
		return max
	}
	return col + 1
}
