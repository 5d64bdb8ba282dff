package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Section is a block of prose with nested subsections.
type Section struct {
	Title    string    `json:"title,omitempty"`
	Content  string    `json:"content,omitempty"`
	Sections []Section `json:"sections,omitempty"`
	Data     any       `json:"data,omitempty"`
}

// RenderData returns Data, or the section itself.
func (s *Section) RenderData() any {
	if s.Data != nil {
		return s.Data
	}
	return s
}

// RenderText underlines the top level with "=" and nested levels with "-".
func (s *Section) RenderText(w io.Writer, colored bool) error {
	s.writeText(w, colored, 0)
	return nil
}

func (s *Section) writeText(w io.Writer, colored bool, depth int) {
	if s.Title != "" {
		rule := "-"
		if depth == 0 {
			rule = "="
		}
		heading(w, s.Title, rule, colored, color.Bold)
	}
	if s.Content != "" {
		fmt.Fprintln(w, s.Content)
	}
	for i := range s.Sections {
		fmt.Fprintln(w)
		s.Sections[i].writeText(w, colored, depth+1)
	}
}

// RenderMarkdown starts at a level-two heading.
func (s *Section) RenderMarkdown(w io.Writer) error {
	s.writeMarkdown(w, 2)
	return nil
}

func (s *Section) writeMarkdown(w io.Writer, level int) {
	if s.Title != "" {
		fmt.Fprintf(w, "%s %s\n\n", strings.Repeat("#", level), s.Title)
	}
	if s.Content != "" {
		fmt.Fprintf(w, "%s\n\n", s.Content)
	}
	for i := range s.Sections {
		s.Sections[i].writeMarkdown(w, level+1)
	}
}

// Report stacks several renderables under one title. Structured formats
// serialize Data when set.
type Report struct {
	Title    string       `json:"title,omitempty"`
	Sections []Renderable `json:"-"`
	Data     any          `json:"data,omitempty"`
}

// RenderData returns Data, or the title with each part's data.
func (r *Report) RenderData() any {
	if r.Data != nil {
		return r.Data
	}
	parts := make([]any, 0, len(r.Sections))
	for _, s := range r.Sections {
		parts = append(parts, s.RenderData())
	}
	return map[string]any{"title": r.Title, "sections": parts}
}

// RenderText prints each part separated by a blank line.
func (r *Report) RenderText(w io.Writer, colored bool) error {
	if r.Title != "" {
		heading(w, r.Title, "=", colored, color.Bold, color.FgCyan)
		fmt.Fprintln(w)
	}
	for i, s := range r.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := s.RenderText(w, colored); err != nil {
			return err
		}
	}
	return nil
}

// RenderMarkdown prints the title as a level-one heading.
func (r *Report) RenderMarkdown(w io.Writer) error {
	if r.Title != "" {
		fmt.Fprintf(w, "# %s\n\n", r.Title)
	}
	for _, s := range r.Sections {
		if err := s.RenderMarkdown(w); err != nil {
			return err
		}
	}
	return nil
}

// severityColors maps band names to the color they print in.
var severityColors = map[string]func(string, ...any) string{
	"critical":             color.RedString,
	"high":                 color.RedString,
	"huge":                 color.RedString,
	"needs_improvement":    color.RedString,
	"unpredictable":        color.RedString,
	"very_large":           color.RedString,
	"medium":               color.YellowString,
	"moderate":             color.YellowString,
	"large":                color.YellowString,
	"fair":                 color.YellowString,
	"somewhat_predictable": color.YellowString,
	"low":                  color.GreenString,
	"small":                color.GreenString,
	"good":                 color.GreenString,
	"excellent":            color.GreenString,
	"predictable":          color.GreenString,
	"very_predictable":     color.GreenString,
	"elite":                color.GreenString,
}

// SeverityColor colors text by the band named in severity. Uncolored output
// and unknown bands return text unchanged.
func SeverityColor(severity, text string, colored bool) string {
	if !colored {
		return text
	}
	if paint, ok := severityColors[strings.ToLower(severity)]; ok {
		return paint("%s", text)
	}
	return text
}
