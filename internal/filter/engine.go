package filter

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/thebtf/promptdeck/internal/library"
	"github.com/thebtf/promptdeck/pkg/models"
)

// DefaultLocale is used for title ordering when no locale is configured.
const DefaultLocale = "en"

// Engine computes visible prompts. It only carries the collation locale, so one Engine
// can be shared freely.
type Engine struct {
	locale language.Tag
}

// NewEngine returns an Engine that sorts search results with the given BCP 47 locale.
// An unparsable locale falls back to DefaultLocale.
func NewEngine(locale string) *Engine {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.MustParse(DefaultLocale)
	}
	return &Engine{locale: tag}
}

var defaultEngine = NewEngine(DefaultLocale)

// Locale returns the collation locale.
func (e *Engine) Locale() string { return e.locale.String() }

// VisiblePrompts filters with the default locale.
func VisiblePrompts(c *library.Catalog, s State) []models.MappedPrompt {
	return defaultEngine.VisiblePrompts(c, s)
}

// MatchesIndustry applies the industry rule: "all" matches everything; otherwise the prompt
// must list the industry or the all-industries marker. A prompt with no industries only
// matches the "all" selection.
func MatchesIndustry(industryIDs []string, industryID string) bool {
	if industryID == models.AllIndustries || industryID == "" {
		return true
	}
	for _, id := range industryIDs {
		if id == industryID || id == models.AllIndustries {
			return true
		}
	}
	return false
}

// Matches applies the industry, job area and use case selections to one prompt.
func Matches(p models.MappedPrompt, s State) bool {
	s = s.WithDefaults()
	if !MatchesIndustry(p.IndustryIDs, s.IndustryID) {
		return false
	}
	if s.JobArea != models.AllJobAreas && p.JobArea != s.JobArea {
		return false
	}
	if s.UseCase != models.AllUseCases && p.UseCase != s.UseCase {
		return false
	}
	return true
}

// VisiblePrompts returns the prompts matching s. Without a query the dataset order is kept;
// with a query only prompts whose search text contains it remain, sorted by title.
func (e *Engine) VisiblePrompts(c *library.Catalog, s State) []models.MappedPrompt {
	if c == nil {
		return []models.MappedPrompt{}
	}

	query := s.NormalizedQuery()
	out := make([]models.MappedPrompt, 0, c.Count())
	for _, p := range c.Mapped() {
		if !Matches(p, s) {
			continue
		}
		if query != "" && !strings.Contains(p.SearchText, query) {
			continue
		}
		out = append(out, p)
	}

	if query != "" {
		e.SortByTitle(out)
	}
	return out
}

// SortByTitle orders prompts by title, case-insensitively and locale-aware. Equal titles
// keep their relative order.
func (e *Engine) SortByTitle(prompts []models.MappedPrompt) {
	// Collators keep internal buffers and are not safe for concurrent use.
	col := collate.New(e.locale, collate.IgnoreCase)
	sort.SliceStable(prompts, func(i, j int) bool {
		return col.CompareString(prompts[i].Title, prompts[j].Title) < 0
	})
}
