package analysis

import "echolog/internal/domain"

// Editor applies local edits to one analysis result. Every mutation is
// mirrored to the owner through the change callback; persistence is an
// external collaborator's responsibility.
type Editor struct {
	current  domain.Analysis
	onChange func(domain.Analysis)
}

// NewEditor copies the analysis so edits never alias the fetched data.
func NewEditor(a domain.Analysis, onChange func(domain.Analysis)) *Editor {
	return &Editor{current: a.Clone(), onChange: onChange}
}

// Current returns a copy of the edited analysis.
func (e *Editor) Current() domain.Analysis {
	return e.current.Clone()
}

// SetSummary replaces the summary text.
func (e *Editor) SetSummary(summary string) {
	e.current.Summary = summary
	e.changed()
}

// SetTone replaces the optional tone label.
func (e *Editor) SetTone(tone string) {
	e.current.Tone = tone
	e.changed()
}

// AddKeyword appends a keyword. Duplicates are allowed and order is
// preserved for display.
func (e *Editor) AddKeyword(keyword string) {
	e.current.Keywords = append(e.current.Keywords, keyword)
	e.changed()
}

// RemoveKeyword deletes the keyword at index; out of range is a no-op.
func (e *Editor) RemoveKeyword(index int) {
	if index < 0 || index >= len(e.current.Keywords) {
		return
	}
	e.current.Keywords = append(e.current.Keywords[:index], e.current.Keywords[index+1:]...)
	e.changed()
}

// MoveKeyword reorders a keyword; out of range indexes are a no-op.
func (e *Editor) MoveKeyword(from, to int) {
	kw := e.current.Keywords
	if from < 0 || from >= len(kw) || to < 0 || to >= len(kw) || from == to {
		return
	}
	moved := kw[from]
	kw = append(kw[:from], kw[from+1:]...)
	kw = append(kw[:to], append([]string{moved}, kw[to:]...)...)
	e.current.Keywords = kw
	e.changed()
}

// UpdateSection replaces a section's title and content.
func (e *Editor) UpdateSection(index int, title, content string) {
	if index < 0 || index >= len(e.current.Sections) {
		return
	}
	e.current.Sections[index].Title = title
	e.current.Sections[index].Content = content
	e.changed()
}

// AddSectionKeyword appends a keyword to one section.
func (e *Editor) AddSectionKeyword(index int, keyword string) {
	if index < 0 || index >= len(e.current.Sections) {
		return
	}
	e.current.Sections[index].Keywords = append(e.current.Sections[index].Keywords, keyword)
	e.changed()
}

// RemoveSectionKeyword deletes a keyword from one section.
func (e *Editor) RemoveSectionKeyword(section, index int) {
	if section < 0 || section >= len(e.current.Sections) {
		return
	}
	kw := e.current.Sections[section].Keywords
	if index < 0 || index >= len(kw) {
		return
	}
	e.current.Sections[section].Keywords = append(kw[:index], kw[index+1:]...)
	e.changed()
}

// changed mirrors the new value to the owner.
func (e *Editor) changed() {
	if e.onChange != nil {
		e.onChange(e.current.Clone())
	}
}
