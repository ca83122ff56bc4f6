package domain

// AnalysisSection is one titled block of the structured analysis.
// Keyword order is meaningful for display and duplicates are allowed.
type AnalysisSection struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords"`
}

// Analysis is the structured result produced by the backend for one
// transcript, linked to it by the durable transcription identifier.
type Analysis struct {
	ID       string            `json:"id,omitempty"`
	Summary  string            `json:"summary"`
	Tone     string            `json:"tone,omitempty"`
	Keywords []string          `json:"keywords"`
	Sections []AnalysisSection `json:"sections"`
}

// Clone returns a deep copy so local edits never alias backend data.
func (a Analysis) Clone() Analysis {
	out := a
	out.Keywords = append([]string(nil), a.Keywords...)
	out.Sections = make([]AnalysisSection, len(a.Sections))
	for i, s := range a.Sections {
		s.Keywords = append([]string(nil), s.Keywords...)
		out.Sections[i] = s
	}
	return out
}
