// Package view projects a catalogue and a filter state into the page model the dashboard
// renders. Rendering is a pure function of its inputs.
package view

import (
	"fmt"
	"strings"

	"github.com/thebtf/promptdeck/internal/clipboard"
	"github.com/thebtf/promptdeck/internal/filter"
	"github.com/thebtf/promptdeck/internal/library"
	"github.com/thebtf/promptdeck/pkg/models"
)

// User-facing texts.
const (
	AllIndustriesLabel  = "All industries"
	HintSelectJobArea   = "Select a specific job area to see its use cases."
	HintNoUseCases      = "No use cases with prompts for this setup yet."
	EmptyFiltersMessage = "No prompts match the selected filters."
)

// Option is one entry of a select control.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Pill is one use-case toggle.
type Pill struct {
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// Card is one rendered prompt.
type Card struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	JobArea    string   `json:"jobArea"`
	UseCase    string   `json:"useCase"`
	Industries []string `json:"industries"`
	Template   string   `json:"template"`
	CopyLabel  string   `json:"copyLabel"`
}

// Page is everything the dashboard needs to draw one frame.
type Page struct {
	State filter.State `json:"state"`

	Industries           []Option `json:"industries"`
	IndustryLocked       bool     `json:"industryLocked"`
	SelectedIndustryName string   `json:"selectedIndustryName"`

	JobAreas      []Option `json:"jobAreas"`
	JobAreaLocked bool     `json:"jobAreaLocked"`

	UseCasePills []Pill `json:"useCasePills"`
	UseCaseHint  string `json:"useCaseHint,omitempty"`

	Cards        []Card `json:"cards"`
	Shown        int    `json:"shown"`
	Total        int    `json:"total"`
	ResultsMeta  string `json:"resultsMeta"`
	EmptyMessage string `json:"emptyMessage,omitempty"`

	Error   string `json:"error,omitempty"`
	Version string `json:"version,omitempty"`
}

// Render builds the page for s. The state is normalised against the catalogue first,
// so a stale selection never reaches the page.
func Render(e *filter.Engine, c *library.Catalog, s filter.State) Page {
	s = filter.Normalize(c, s)
	visible := e.VisiblePrompts(c, s)

	page := Page{
		State:                s,
		Industries:           industryOptions(c, s),
		IndustryLocked:       s.IndustrySelected(),
		SelectedIndustryName: selectedIndustryName(c, s),
		JobAreas:             jobAreaOptions(c, s),
		JobAreaLocked:        s.JobAreaSelected(),
		Cards:                cards(visible),
		Shown:                len(visible),
		Total:                c.Count(),
		Version:              c.Version(),
	}
	page.UseCasePills, page.UseCaseHint = useCasePills(c, s)
	page.ResultsMeta = ResultsMeta(page.Shown, page.Total)
	if len(visible) == 0 {
		page.EmptyMessage = EmptyMessage(s)
	}
	return page
}

// RenderError builds the permanent error page shown when the dataset failed to load.
func RenderError() Page {
	return Page{
		State:        filter.DefaultState(),
		Industries:   []Option{},
		JobAreas:     []Option{},
		UseCasePills: []Pill{},
		Cards:        []Card{},
		Error:        library.LoadFailedMessage,
		EmptyMessage: library.LoadFailedMessage,
	}
}

// ResultsMeta is the "Showing N of M prompts" line.
func ResultsMeta(shown, total int) string {
	return fmt.Sprintf("Showing %d of %d prompts", shown, total)
}

// EmptyMessage explains an empty result, quoting the search query when one is active.
func EmptyMessage(s filter.State) string {
	if q := strings.TrimSpace(s.Query); q != "" {
		return fmt.Sprintf("No prompts match \"%s\".", q)
	}
	return EmptyFiltersMessage
}

func industryOptions(c *library.Catalog, s filter.State) []Option {
	industries := c.Industries()
	opts := make([]Option, 0, len(industries)+1)
	if _, ok := c.Industry(models.AllIndustries); !ok {
		opts = append(opts, Option{
			Value:    models.AllIndustries,
			Label:    AllIndustriesLabel,
			Selected: s.IndustryID == models.AllIndustries,
		})
	}
	for _, ind := range industries {
		opts = append(opts, Option{
			Value:    ind.ID,
			Label:    ind.Name,
			Selected: s.IndustryID == ind.ID,
		})
	}
	return opts
}

func selectedIndustryName(c *library.Catalog, s filter.State) string {
	if ind, ok := c.Industry(s.IndustryID); ok && ind.Name != "" {
		return ind.Name
	}
	return AllIndustriesLabel
}

func jobAreaOptions(c *library.Catalog, s filter.State) []Option {
	available := filter.AvailableJobAreas(c, s.IndustryID)
	opts := make([]Option, 0, len(available)+1)
	opts = append(opts, Option{
		Value:    models.AllJobAreas,
		Label:    models.AllJobAreas,
		Selected: s.JobArea == models.AllJobAreas,
	})
	for _, name := range available {
		opts = append(opts, Option{Value: name, Label: name, Selected: s.JobArea == name})
	}
	return opts
}

func useCasePills(c *library.Catalog, s filter.State) ([]Pill, string) {
	available := filter.AvailableUseCases(c, s.IndustryID, s.JobArea)
	pills := make([]Pill, 0, len(available)+1)
	pills = append(pills, Pill{Label: models.AllUseCases, Active: s.UseCase == models.AllUseCases})
	for _, name := range available {
		pills = append(pills, Pill{Label: name, Active: s.UseCase == name})
	}

	switch {
	case !s.JobAreaSelected():
		return pills, HintSelectJobArea
	case len(available) == 0:
		return pills, HintNoUseCases
	default:
		return pills, ""
	}
}

func cards(prompts []models.MappedPrompt) []Card {
	out := make([]Card, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, Card{
			ID:         p.ID,
			Title:      p.Title,
			JobArea:    p.JobArea,
			UseCase:    p.UseCase,
			Industries: p.IndustryNames,
			Template:   p.Template,
			CopyLabel:  clipboard.CopyLabel,
		})
	}
	return out
}
