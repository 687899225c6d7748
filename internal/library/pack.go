package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/thebtf/promptdeck/pkg/models"
)

// Pack is a YAML overlay that contributes extra taxonomy entries and prompts
// on top of the main dataset.
type Pack struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Industries  []models.Industry `yaml:"industries"`
	JobAreas    []models.JobArea  `yaml:"job_areas"`
	Prompts     []models.Prompt   `yaml:"prompts"`

	FilePath string `yaml:"-"`
}

// LoadPack reads a single pack file.
func LoadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse pack %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	p.FilePath = path
	return &p, nil
}

// LoadPackDir reads every *.yml / *.yaml file in dir, in file name order.
// If the directory does not exist, LoadPackDir returns no packs (not an error).
func LoadPackDir(dir string) ([]*Pack, error) {
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yml", ".yaml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	packs := make([]*Pack, 0, len(names))
	for _, name := range names {
		p, err := LoadPack(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		packs = append(packs, p)
	}
	return packs, nil
}

// Merge appends pack contents to lib. Entries whose id already exists keep the
// first declaration; use cases are merged into an existing job area of the same id.
// The input library is not modified.
func Merge(lib models.Library, packs ...*Pack) models.Library {
	if len(packs) == 0 {
		return lib
	}

	out := cloneLibrary(lib)

	industries := make(map[string]bool, len(out.Industries))
	for _, ind := range out.Industries {
		industries[ind.ID] = true
	}
	areaIdx := make(map[string]int, len(out.JobAreas))
	for i, area := range out.JobAreas {
		if _, ok := areaIdx[area.ID]; !ok {
			areaIdx[area.ID] = i
		}
	}
	prompts := make(map[string]bool, len(out.Prompts))
	for _, p := range out.Prompts {
		prompts[p.ID] = true
	}

	for _, pack := range packs {
		if pack == nil {
			continue
		}
		for _, ind := range pack.Industries {
			if industries[ind.ID] {
				continue
			}
			industries[ind.ID] = true
			out.Industries = append(out.Industries, ind)
		}

		for _, area := range pack.JobAreas {
			i, ok := areaIdx[area.ID]
			if !ok {
				areaIdx[area.ID] = len(out.JobAreas)
				area.UseCases = append([]models.UseCase(nil), area.UseCases...)
				out.JobAreas = append(out.JobAreas, area)
				continue
			}
			existing := &out.JobAreas[i]
			for _, uc := range area.UseCases {
				if !hasUseCase(existing.UseCases, uc.ID) {
					existing.UseCases = append(existing.UseCases, uc)
				}
			}
		}

		for _, p := range pack.Prompts {
			if prompts[p.ID] {
				log.Warn().Str("pack", pack.Name).Str("promptId", p.ID).Msg("Duplicate prompt id in pack, skipping")
				continue
			}
			prompts[p.ID] = true
			out.Prompts = append(out.Prompts, p)
		}
	}

	return out
}

func hasUseCase(useCases []models.UseCase, id string) bool {
	for _, uc := range useCases {
		if uc.ID == id {
			return true
		}
	}
	return false
}
