package filter

import (
	"github.com/thebtf/promptdeck/internal/library"
	"github.com/thebtf/promptdeck/pkg/models"
)

// AvailableJobAreas returns, in declared order, the names of job areas that have at least
// one prompt matching the industry selection.
func AvailableJobAreas(c *library.Catalog, industryID string) []string {
	if c == nil {
		return []string{}
	}

	used := make(map[string]bool)
	for _, p := range c.Prompts() {
		if MatchesIndustry(p.IndustryIDs, industryID) {
			used[p.JobAreaID] = true
		}
	}

	names := make([]string, 0, len(used))
	for _, area := range c.JobAreas() {
		if used[area.ID] {
			names = append(names, area.Name)
		}
	}
	return names
}

// AvailableUseCases returns, in the job area's declared order, the names of use cases that
// have at least one prompt matching the industry selection. With no job area selected the
// list is empty.
func AvailableUseCases(c *library.Catalog, industryID, jobAreaName string) []string {
	if c == nil || jobAreaName == models.AllJobAreas || jobAreaName == "" {
		return []string{}
	}

	area, ok := c.JobAreaByName(jobAreaName)
	if !ok {
		return []string{}
	}

	used := make(map[string]bool)
	for _, p := range c.Prompts() {
		if p.JobAreaID == area.ID && MatchesIndustry(p.IndustryIDs, industryID) {
			used[p.UseCaseID] = true
		}
	}

	names := make([]string, 0, len(used))
	for _, uc := range area.UseCases {
		if used[uc.ID] {
			names = append(names, uc.Name)
		}
	}
	return names
}
