package analysis

import (
	"reflect"
	"testing"

	"echolog/internal/domain"
)

func sampleAnalysis() domain.Analysis {
	return domain.Analysis{
		ID:       "a-1",
		Summary:  "summary",
		Tone:     "neutral",
		Keywords: []string{"alpha", "beta", "gamma"},
		Sections: []domain.AnalysisSection{
			{Title: "intro", Content: "content", Keywords: []string{"one", "two"}},
		},
	}
}

// TestEditorNeverAliasesSource verifies construction and reads copy.
func TestEditorNeverAliasesSource(t *testing.T) {
	src := sampleAnalysis()
	e := NewEditor(src, nil)

	e.AddKeyword("delta")
	if len(src.Keywords) != 3 {
		t.Fatal("edit leaked into the source analysis")
	}

	view := e.Current()
	view.Keywords[0] = "mutated"
	if e.Current().Keywords[0] != "alpha" {
		t.Fatal("current() returned an aliased slice")
	}
}

// TestEditorMutationsMirrorToOwner verifies each edit triggers the
// change callback with the updated value.
func TestEditorMutationsMirrorToOwner(t *testing.T) {
	var mirrored domain.Analysis
	changes := 0
	e := NewEditor(sampleAnalysis(), func(a domain.Analysis) {
		mirrored = a
		changes++
	})

	e.SetSummary("new summary")
	e.SetTone("upbeat")
	e.AddKeyword("delta")
	e.RemoveKeyword(0)
	e.MoveKeyword(0, 2)
	e.UpdateSection(0, "opening", "reworked")
	e.AddSectionKeyword(0, "three")
	e.RemoveSectionKeyword(0, 0)

	if changes != 8 {
		t.Fatalf("changes = %d, want 8", changes)
	}
	if mirrored.Summary != "new summary" || mirrored.Tone != "upbeat" {
		t.Fatalf("mirrored = %+v", mirrored)
	}
	if !reflect.DeepEqual(mirrored.Keywords, []string{"gamma", "delta", "beta"}) {
		t.Fatalf("keywords = %v", mirrored.Keywords)
	}
	if mirrored.Sections[0].Title != "opening" || mirrored.Sections[0].Content != "reworked" {
		t.Fatalf("section = %+v", mirrored.Sections[0])
	}
	if !reflect.DeepEqual(mirrored.Sections[0].Keywords, []string{"two", "three"}) {
		t.Fatalf("section keywords = %v", mirrored.Sections[0].Keywords)
	}
}

// TestEditorOutOfRangeIsNoOp verifies bad indexes change nothing and
// fire no callback.
func TestEditorOutOfRangeIsNoOp(t *testing.T) {
	changes := 0
	e := NewEditor(sampleAnalysis(), func(domain.Analysis) { changes++ })

	e.RemoveKeyword(-1)
	e.RemoveKeyword(99)
	e.MoveKeyword(0, 99)
	e.MoveKeyword(1, 1)
	e.UpdateSection(5, "x", "y")
	e.AddSectionKeyword(5, "x")
	e.RemoveSectionKeyword(0, 99)
	e.RemoveSectionKeyword(9, 0)

	if changes != 0 {
		t.Fatalf("changes = %d, want 0", changes)
	}
	if !reflect.DeepEqual(e.Current(), sampleAnalysis()) {
		t.Fatalf("analysis mutated: %+v", e.Current())
	}
}
