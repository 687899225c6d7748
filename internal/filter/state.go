// Package filter implements the cascading industry → job area → use case filter,
// free-text search, and the selection-reset rules that keep the three selections consistent.
//
// Every function here is pure: it takes a catalogue snapshot and a State value and returns
// a new value. UI layers (HTTP, MCP, CLI, tests) own the State and pass it back in.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/thebtf/promptdeck/internal/library"
	"github.com/thebtf/promptdeck/pkg/models"
)

// ErrUnknownAction is returned by Apply for an unrecognised action type.
var ErrUnknownAction = errors.New("unknown filter action")

// State is the current selection. The zero value is not valid; use DefaultState.
type State struct {
	IndustryID string `json:"industry"`
	JobArea    string `json:"jobArea"`
	UseCase    string `json:"useCase"`
	Query      string `json:"query"`
}

// DefaultState selects everything and searches nothing.
func DefaultState() State {
	return State{
		IndustryID: models.AllIndustries,
		JobArea:    models.AllJobAreas,
		UseCase:    models.AllUseCases,
	}
}

// WithDefaults replaces empty selections by their sentinels.
func (s State) WithDefaults() State {
	if s.IndustryID == "" {
		s.IndustryID = models.AllIndustries
	}
	if s.JobArea == "" {
		s.JobArea = models.AllJobAreas
	}
	if s.UseCase == "" {
		s.UseCase = models.AllUseCases
	}
	return s
}

// NormalizedQuery is the trimmed, lowercased search query.
func (s State) NormalizedQuery() string {
	return strings.ToLower(strings.TrimSpace(s.Query))
}

// HasQuery reports whether a search is active.
func (s State) HasQuery() bool { return s.NormalizedQuery() != "" }

// IndustrySelected reports whether a concrete industry is selected.
func (s State) IndustrySelected() bool { return s.IndustryID != models.AllIndustries }

// JobAreaSelected reports whether a concrete job area is selected.
func (s State) JobAreaSelected() bool { return s.JobArea != models.AllJobAreas }

// SelectIndustry switches industry and resets whichever downstream selection went stale.
func SelectIndustry(c *library.Catalog, s State, industryID string) State {
	s = s.WithDefaults()
	if industryID == "" {
		industryID = models.AllIndustries
	}
	s.IndustryID = industryID

	if industryID == models.AllIndustries {
		s.JobArea = models.AllJobAreas
		s.UseCase = models.AllUseCases
		return s
	}
	if s.JobAreaSelected() && !contains(AvailableJobAreas(c, industryID), s.JobArea) {
		s.JobArea = models.AllJobAreas
		s.UseCase = models.AllUseCases
		return s
	}
	if s.UseCase != models.AllUseCases && !contains(AvailableUseCases(c, industryID, s.JobArea), s.UseCase) {
		s.UseCase = models.AllUseCases
	}
	return s
}

// SelectJobArea switches job area. A job area with no prompts under the current industry
// falls back to "All"; a use case that is no longer offered resets to "All".
func SelectJobArea(c *library.Catalog, s State, name string) State {
	s = s.WithDefaults()
	if name == "" {
		name = models.AllJobAreas
	}
	if name != models.AllJobAreas && !contains(AvailableJobAreas(c, s.IndustryID), name) {
		name = models.AllJobAreas
	}
	s.JobArea = name

	if s.UseCase != models.AllUseCases && !contains(AvailableUseCases(c, s.IndustryID, name), s.UseCase) {
		s.UseCase = models.AllUseCases
	}
	return s
}

// SelectUseCase switches use case without touching the other selections.
// A use case that is not offered for the current selection falls back to "All".
func SelectUseCase(c *library.Catalog, s State, name string) State {
	s = s.WithDefaults()
	if name == "" {
		name = models.AllUseCases
	}
	if name != models.AllUseCases && !contains(AvailableUseCases(c, s.IndustryID, s.JobArea), name) {
		name = models.AllUseCases
	}
	s.UseCase = name
	return s
}

// ClearIndustry resets all three selections. The search query is kept.
func ClearIndustry(s State) State {
	s.IndustryID = models.AllIndustries
	s.JobArea = models.AllJobAreas
	s.UseCase = models.AllUseCases
	return s
}

// ClearJobArea resets job area and use case.
func ClearJobArea(s State) State {
	s = s.WithDefaults()
	s.JobArea = models.AllJobAreas
	s.UseCase = models.AllUseCases
	return s
}

// SetQuery sets the search query. Selections are untouched.
func SetQuery(s State, q string) State {
	s.Query = q
	return s
}

// ClearQuery empties the search query.
func ClearQuery(s State) State {
	s.Query = ""
	return s
}

// Normalize validates a state received from outside against the catalogue, resetting
// stale job area and use case selections. The industry itself is kept even when unknown.
func Normalize(c *library.Catalog, s State) State {
	s = s.WithDefaults()
	if s.JobAreaSelected() && !contains(AvailableJobAreas(c, s.IndustryID), s.JobArea) {
		s.JobArea = models.AllJobAreas
		s.UseCase = models.AllUseCases
	}
	if s.UseCase != models.AllUseCases && !contains(AvailableUseCases(c, s.IndustryID, s.JobArea), s.UseCase) {
		s.UseCase = models.AllUseCases
	}
	return s
}

// ActionType names a user interaction.
type ActionType string

const (
	ActionSelectIndustry ActionType = "select_industry"
	ActionSelectJobArea  ActionType = "select_job_area"
	ActionSelectUseCase  ActionType = "select_use_case"
	ActionClearIndustry  ActionType = "clear_industry"
	ActionClearJobArea   ActionType = "clear_job_area"
	ActionSetQuery       ActionType = "set_query"
	ActionClearQuery     ActionType = "clear_query"
)

// Action is a serialisable transition request.
type Action struct {
	Type  ActionType `json:"type"`
	Value string     `json:"value,omitempty"`
}

// Apply dispatches an action to the matching transition.
func Apply(c *library.Catalog, s State, a Action) (State, error) {
	switch a.Type {
	case ActionSelectIndustry:
		return SelectIndustry(c, s, a.Value), nil
	case ActionSelectJobArea:
		return SelectJobArea(c, s, a.Value), nil
	case ActionSelectUseCase:
		return SelectUseCase(c, s, a.Value), nil
	case ActionClearIndustry:
		return ClearIndustry(s), nil
	case ActionClearJobArea:
		return ClearJobArea(s), nil
	case ActionSetQuery:
		return SetQuery(s, a.Value), nil
	case ActionClearQuery:
		return ClearQuery(s), nil
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
}

func contains(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}
