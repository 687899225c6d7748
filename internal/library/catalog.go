// Package library loads the prompt dataset and exposes it as an immutable, pre-joined catalogue.
package library

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/thebtf/promptdeck/pkg/models"
)

// Catalog is one loaded snapshot of the dataset. It is never mutated after NewCatalog returns,
// so it can be shared between goroutines without locking.
type Catalog struct {
	library  models.Library
	mapped   []models.MappedPrompt
	version  string
	loadedAt time.Time

	industryByID  map[string]*models.Industry
	jobAreaByID   map[string]*models.JobArea
	jobAreaByName map[string]*models.JobArea
	promptIndex   map[string]int
}

// NewCatalog builds lookup tables and maps every prompt once.
func NewCatalog(lib models.Library) *Catalog {
	c := &Catalog{
		library:       cloneLibrary(lib),
		loadedAt:      time.Now(),
		industryByID:  make(map[string]*models.Industry, len(lib.Industries)),
		jobAreaByID:   make(map[string]*models.JobArea, len(lib.JobAreas)),
		jobAreaByName: make(map[string]*models.JobArea, len(lib.JobAreas)),
		promptIndex:   make(map[string]int, len(lib.Prompts)),
	}

	// First declaration wins on duplicate ids, matching a linear find over the arrays.
	for i := range lib.Industries {
		ind := &c.library.Industries[i]
		if _, ok := c.industryByID[ind.ID]; !ok {
			c.industryByID[ind.ID] = ind
		}
	}
	for i := range lib.JobAreas {
		area := &c.library.JobAreas[i]
		if _, ok := c.jobAreaByID[area.ID]; !ok {
			c.jobAreaByID[area.ID] = area
		}
		if _, ok := c.jobAreaByName[area.Name]; !ok {
			c.jobAreaByName[area.Name] = area
		}
	}

	c.mapped = make([]models.MappedPrompt, 0, len(lib.Prompts))
	hash := sha256.New()
	for i, p := range c.library.Prompts {
		if _, ok := c.promptIndex[p.ID]; !ok {
			c.promptIndex[p.ID] = i
		}
		c.mapped = append(c.mapped, c.mapPrompt(p))
		hash.Write([]byte(p.ID))
		hash.Write([]byte{0})
		hash.Write([]byte(p.Template))
		hash.Write([]byte{0})
	}
	c.version = hex.EncodeToString(hash.Sum(nil)[:6])

	return c
}

func cloneLibrary(lib models.Library) models.Library {
	out := models.Library{
		Industries: append([]models.Industry(nil), lib.Industries...),
		JobAreas:   make([]models.JobArea, len(lib.JobAreas)),
		Prompts:    make([]models.Prompt, len(lib.Prompts)),
	}
	for i, area := range lib.JobAreas {
		area.UseCases = append([]models.UseCase(nil), area.UseCases...)
		out.JobAreas[i] = area
	}
	for i, p := range lib.Prompts {
		p.IndustryIDs = append([]string(nil), p.IndustryIDs...)
		out.Prompts[i] = p
	}
	return out
}

// mapPrompt joins display names. A reference missing from its collection falls back
// to the raw id string.
func (c *Catalog) mapPrompt(p models.Prompt) models.MappedPrompt {
	jobAreaName := p.JobAreaID
	useCaseName := p.UseCaseID
	if area, ok := c.jobAreaByID[p.JobAreaID]; ok {
		if area.Name != "" {
			jobAreaName = area.Name
		}
		for _, uc := range area.UseCases {
			if uc.ID == p.UseCaseID {
				if uc.Name != "" {
					useCaseName = uc.Name
				}
				break
			}
		}
	}

	industryNames := make([]string, 0, len(p.IndustryIDs))
	for _, id := range p.IndustryIDs {
		industryNames = append(industryNames, c.IndustryName(id))
	}

	industryIDs := make([]string, len(p.IndustryIDs))
	copy(industryIDs, p.IndustryIDs)

	searchText := strings.ToLower(strings.Join([]string{
		p.Title,
		p.Template,
		jobAreaName,
		useCaseName,
		strings.Join(industryNames, " "),
	}, " "))

	return models.MappedPrompt{
		ID:            p.ID,
		Title:         p.Title,
		Template:      p.Template,
		JobAreaID:     p.JobAreaID,
		JobArea:       jobAreaName,
		UseCaseID:     p.UseCaseID,
		UseCase:       useCaseName,
		IndustryIDs:   industryIDs,
		IndustryNames: industryNames,
		SearchText:    searchText,
	}
}

// Library returns the raw dataset document.
func (c *Catalog) Library() models.Library { return c.library }

// Industries returns industries in declared order.
func (c *Catalog) Industries() []models.Industry { return c.library.Industries }

// JobAreas returns job areas in declared order.
func (c *Catalog) JobAreas() []models.JobArea { return c.library.JobAreas }

// Prompts returns the raw prompts in dataset order.
func (c *Catalog) Prompts() []models.Prompt { return c.library.Prompts }

// Mapped returns every mapped prompt in dataset order. Callers must not modify the slice.
func (c *Catalog) Mapped() []models.MappedPrompt { return c.mapped }

// Count returns the total number of prompts.
func (c *Catalog) Count() int { return len(c.mapped) }

// Version is a short content hash of the prompts, stable across reloads of identical data.
func (c *Catalog) Version() string { return c.version }

// LoadedAt returns when the snapshot was built.
func (c *Catalog) LoadedAt() time.Time { return c.loadedAt }

// Industry looks an industry up by id.
func (c *Catalog) Industry(id string) (models.Industry, bool) {
	ind, ok := c.industryByID[id]
	if !ok {
		return models.Industry{}, false
	}
	return *ind, true
}

// IndustryName resolves an industry id to its display name, or the id itself when unknown.
func (c *Catalog) IndustryName(id string) string {
	if ind, ok := c.industryByID[id]; ok && ind.Name != "" {
		return ind.Name
	}
	return id
}

// JobAreaByName looks a job area up by display name.
func (c *Catalog) JobAreaByName(name string) (models.JobArea, bool) {
	area, ok := c.jobAreaByName[name]
	if !ok {
		return models.JobArea{}, false
	}
	return *area, true
}

// Prompt returns the mapped prompt with the given id.
func (c *Catalog) Prompt(id string) (models.MappedPrompt, bool) {
	i, ok := c.promptIndex[id]
	if !ok {
		return models.MappedPrompt{}, false
	}
	return c.mapped[i], true
}
