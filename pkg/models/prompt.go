// Package models contains domain models for promptdeck.
package models

// Sentinel selections meaning "no filter applied".
const (
	// AllIndustries is both the "no industry filter" selection and the marker a prompt carries
	// in IndustryIDs when it applies to every industry.
	AllIndustries = "all"
	AllJobAreas   = "All"
	AllUseCases   = "All"
)

// Industry is a top-level audience or vertical.
type Industry struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// UseCase is a specific scenario within a job area.
type UseCase struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// JobArea is a functional role grouping with its ordered use cases.
type JobArea struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	UseCases []UseCase `json:"useCases" yaml:"use_cases"`
}

// Prompt is a single prompt template as stored in the dataset.
type Prompt struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Template    string   `json:"template" yaml:"template"`
	JobAreaID   string   `json:"jobAreaId" yaml:"job_area_id"`
	UseCaseID   string   `json:"useCaseId" yaml:"use_case_id"`
	IndustryIDs []string `json:"industryIds" yaml:"industry_ids"`
}

// Library is the dataset document: {industries, jobAreas, prompts}.
type Library struct {
	Industries []Industry `json:"industries"`
	JobAreas   []JobArea  `json:"jobAreas"`
	Prompts    []Prompt   `json:"prompts"`
}

// MappedPrompt is a Prompt joined with its display names. It is derived once per load
// and never mutated afterwards.
type MappedPrompt struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Template      string   `json:"template"`
	JobAreaID     string   `json:"jobAreaId"`
	JobArea       string   `json:"jobArea"`
	UseCaseID     string   `json:"useCaseId"`
	UseCase       string   `json:"useCase"`
	IndustryIDs   []string `json:"industryIds"`
	IndustryNames []string `json:"industryNames"`
	SearchText    string   `json:"-"`
}
