package selection

import (
	"testing"
)

func TestExtractLineMode(t *testing.T) {
	lines := []string{"alpha", "beta", "gamma"}

	sel, ok := Extract(Request{
		Mode:       ModeLine,
		Start:      Mark{Line: 1, Col: 0},
		End:        Mark{Line: 2, Col: ColEOL},
		BufferName: "test.go",
		Lines:      lines,
	})
	if !ok {
		t.Fatal("expected a selection")
	}
	if sel.Text != "alpha\nbeta" {
		t.Errorf("expected %q, got %q", "alpha\nbeta", sel.Text)
	}
	if sel.StartLine != 1 || sel.EndLine != 2 {
		t.Errorf("expected range 1-2, got %d-%d", sel.StartLine, sel.EndLine)
	}
}

func TestExtractBackwardsSelection(t *testing.T) {
	lines := []string{"alpha", "beta"}

	// End before start: the user selected upwards.
	sel, ok := Extract(Request{
		Mode:  ModeLine,
		Start: Mark{Line: 2, Col: 0},
		End:   Mark{Line: 1, Col: 0},
		Lines: lines,
	})
	if !ok {
		t.Fatal("expected a selection")
	}
	if sel.Text != "alpha\nbeta" {
		t.Errorf("expected normalized order, got %q", sel.Text)
	}
	if sel.StartLine != 1 || sel.EndLine != 2 {
		t.Errorf("expected range 1-2, got %d-%d", sel.StartLine, sel.EndLine)
	}
}

func TestExtractCharMode(t *testing.T) {
	lines := []string{"hello world", "second line"}

	t.Run("SingleLine", func(t *testing.T) {
		sel, ok := Extract(Request{
			Mode:  ModeChar,
			Start: Mark{Line: 1, Col: 6},
			End:   Mark{Line: 1, Col: 10},
			Lines: lines,
		})
		if !ok {
			t.Fatal("expected a selection")
		}
		if sel.Text != "world" {
			t.Errorf("expected %q, got %q", "world", sel.Text)
		}
	})

	t.Run("MultiLine", func(t *testing.T) {
		sel, ok := Extract(Request{
			Mode:  ModeChar,
			Start: Mark{Line: 1, Col: 6},
			End:   Mark{Line: 2, Col: 5},
			Lines: lines,
		})
		if !ok {
			t.Fatal("expected a selection")
		}
		if sel.Text != "world\nsecon" {
			t.Errorf("expected %q, got %q", "world\nsecon", sel.Text)
		}
	})

	t.Run("EndOfLineSentinel", func(t *testing.T) {
		sel, ok := Extract(Request{
			Mode:  ModeChar,
			Start: Mark{Line: 1, Col: 0},
			End:   Mark{Line: 1, Col: ColEOL},
			Lines: lines,
		})
		if !ok {
			t.Fatal("expected a selection")
		}
		if sel.Text != "hello world" {
			t.Errorf("expected full line, got %q", sel.Text)
		}
	})

	t.Run("StartColumnClamped", func(t *testing.T) {
		sel, ok := Extract(Request{
			Mode:  ModeChar,
			Start: Mark{Line: 1, Col: 100},
			End:   Mark{Line: 2, Col: 0},
			Lines: lines,
		})
		if !ok {
			t.Fatal("expected a selection")
		}
		if sel.Text != "\ns" {
			t.Errorf("expected %q, got %q", "\ns", sel.Text)
		}
	})
}

func TestExtractBlockMode(t *testing.T) {
	lines := []string{"aaaa", "bb", "cccccc"}

	sel, ok := Extract(Request{
		Mode:  ModeBlock,
		Start: Mark{Line: 1, Col: 1},
		End:   Mark{Line: 3, Col: 3},
		Lines: lines,
	})
	if !ok {
		t.Fatal("expected a selection")
	}
	// Each slice is clamped to its own line length.
	if sel.Text != "aaa\nb\nccc" {
		t.Errorf("expected %q, got %q", "aaa\nb\nccc", sel.Text)
	}
}

func TestExtractBlockModeSwappedColumns(t *testing.T) {
	lines := []string{"abcdef", "ghijkl"}

	// Column span is normalized regardless of selection direction.
	sel, ok := Extract(Request{
		Mode:  ModeBlock,
		Start: Mark{Line: 1, Col: 4},
		End:   Mark{Line: 2, Col: 1},
		Lines: lines,
	})
	if !ok {
		t.Fatal("expected a selection")
	}
	if sel.Text != "bcde\nhijk" {
		t.Errorf("expected %q, got %q", "bcde\nhijk", sel.Text)
	}
}

func TestExtractEmpty(t *testing.T) {
	lines := []string{"content"}

	for _, mode := range []Mode{ModeChar, ModeLine, ModeBlock} {
		t.Run(string(mode), func(t *testing.T) {
			// Both marks at the unset sentinel.
			if _, ok := Extract(Request{Mode: mode, Lines: lines}); ok {
				t.Error("expected no selection for unset marks")
			}
		})
	}

	t.Run("EmptyText", func(t *testing.T) {
		_, ok := Extract(Request{
			Mode:  ModeChar,
			Start: Mark{Line: 1, Col: 3},
			End:   Mark{Line: 1, Col: 2},
			Lines: []string{""},
		})
		if ok {
			t.Error("expected no selection for empty text")
		}
	})

	t.Run("StartPastBuffer", func(t *testing.T) {
		_, ok := Extract(Request{
			Mode:  ModeLine,
			Start: Mark{Line: 5, Col: 0},
			End:   Mark{Line: 6, Col: 0},
			Lines: lines,
		})
		if ok {
			t.Error("expected no selection past the buffer end")
		}
	})
}

func TestExtractTabExpansion(t *testing.T) {
	lines := []string{"\tindented"}

	sel, ok := Extract(Request{
		Mode:       ModeLine,
		Start:      Mark{Line: 1, Col: 0},
		End:        Mark{Line: 1, Col: ColEOL},
		Lines:      lines,
		ExpandTabs: true,
		TabWidth:   4,
	})
	if !ok {
		t.Fatal("expected a selection")
	}
	if sel.Text != "    indented" {
		t.Errorf("expected expanded tabs, got %q", sel.Text)
	}

	// Without expandtab the tab stays.
	sel, ok = Extract(Request{
		Mode:  ModeLine,
		Start: Mark{Line: 1, Col: 0},
		End:   Mark{Line: 1, Col: ColEOL},
		Lines: lines,
	})
	if !ok {
		t.Fatal("expected a selection")
	}
	if sel.Text != "\tindented" {
		t.Errorf("expected raw tab, got %q", sel.Text)
	}
}
