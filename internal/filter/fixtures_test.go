package filter

import (
	"github.com/thebtf/promptdeck/internal/library"
	"github.com/thebtf/promptdeck/pkg/models"
)

// minimalCatalog is the single-prompt Finance/Sales/Cold Outreach dataset.
func minimalCatalog() *library.Catalog {
	return library.NewCatalog(models.Library{
		Industries: []models.Industry{
			{ID: "all", Name: "All"},
			{ID: "fin", Name: "Finance"},
		},
		JobAreas: []models.JobArea{
			{ID: "sales", Name: "Sales", UseCases: []models.UseCase{{ID: "cold", Name: "Cold Outreach"}}},
		},
		Prompts: []models.Prompt{
			{ID: "p1", Title: "Intro Email", JobAreaID: "sales", UseCaseID: "cold", IndustryIDs: []string{"fin"}},
		},
	})
}

// richCatalog has several industries, a universal prompt and an industry-less prompt.
func richCatalog() *library.Catalog {
	return library.NewCatalog(models.Library{
		Industries: []models.Industry{
			{ID: "all", Name: "All"},
			{ID: "fin", Name: "Finance"},
			{ID: "health", Name: "Healthcare"},
			{ID: "retail", Name: "Retail"},
		},
		JobAreas: []models.JobArea{
			{ID: "sales", Name: "Sales", UseCases: []models.UseCase{
				{ID: "cold", Name: "Cold Outreach"},
				{ID: "follow", Name: "Follow Up"},
				{ID: "demo", Name: "Demo Prep"},
			}},
			{ID: "hr", Name: "People", UseCases: []models.UseCase{
				{ID: "hiring", Name: "Hiring"},
				{ID: "review", Name: "Performance Review"},
			}},
			{ID: "legal", Name: "Legal", UseCases: []models.UseCase{
				{ID: "contract", Name: "Contract Review"},
			}},
		},
		Prompts: []models.Prompt{
			{ID: "s1", Title: "zebra pitch", Template: "Pitch deck outline", JobAreaID: "sales", UseCaseID: "cold", IndustryIDs: []string{"fin"}},
			{ID: "s2", Title: "Apple follow-up", Template: "Follow up after the demo", JobAreaID: "sales", UseCaseID: "follow", IndustryIDs: []string{"health"}},
			{ID: "h1", Title: "Job post", Template: "Draft a job post for a nurse", JobAreaID: "hr", UseCaseID: "hiring", IndustryIDs: []string{"health"}},
			{ID: "u1", Title: "Meeting Notes", Template: "Summarise the meeting", JobAreaID: "hr", UseCaseID: "review", IndustryIDs: []string{"all"}},
			{ID: "s3", Title: "Ápple pricing", Template: "Pitch pricing tiers", JobAreaID: "sales", UseCaseID: "cold", IndustryIDs: []string{"fin", "retail"}},
			{ID: "n1", Title: "Unassigned", Template: "No industry at all", JobAreaID: "legal", UseCaseID: "contract", IndustryIDs: []string{}},
		},
	})
}

func ids(prompts []models.MappedPrompt) []string {
	out := make([]string, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, p.ID)
	}
	return out
}
