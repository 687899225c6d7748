package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/promptdeck/internal/clipboard"
	"github.com/thebtf/promptdeck/internal/config"
	"github.com/thebtf/promptdeck/internal/library"
	"github.com/thebtf/promptdeck/pkg/models"
)

func testLibrary() models.Library {
	return models.Library{
		Industries: []models.Industry{
			{ID: "all", Name: "All"},
			{ID: "fin", Name: "Finance"},
			{ID: "health", Name: "Healthcare"},
		},
		JobAreas: []models.JobArea{
			{ID: "sales", Name: "Sales", UseCases: []models.UseCase{
				{ID: "cold", Name: "Cold Outreach"},
				{ID: "follow", Name: "Follow-up"},
			}},
			{ID: "hr", Name: "People", UseCases: []models.UseCase{{ID: "hiring", Name: "Hiring"}}},
		},
		Prompts: []models.Prompt{
			{ID: "p1", Title: "Intro Email", Template: "Write an intro email.", JobAreaID: "sales", UseCaseID: "cold", IndustryIDs: []string{"fin"}},
			{ID: "p2", Title: "Check-in", Template: "Write a check-in.", JobAreaID: "sales", UseCaseID: "follow", IndustryIDs: []string{"all"}},
			{ID: "p3", Title: "Job Ad", Template: "Draft a job ad.", JobAreaID: "hr", UseCaseID: "hiring", IndustryIDs: []string{"health"}},
		},
	}
}

type recordingClipboard struct {
	texts []string
	err   error
}

func (r *recordingClipboard) WriteText(text string) error {
	if r.err != nil {
		return r.err
	}
	r.texts = append(r.texts, text)
	return nil
}

// execute runs promptctl against a dataset written to a temp dir.
func execute(t *testing.T, cb clipboard.Writer, args ...string) (string, string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompt-library.json")
	data, err := json.Marshal(testLibrary())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	d := deps{
		loadConfig: func() *config.Config {
			cfg := config.Default()
			cfg.LibrarySource = path
			cfg.PackDir = ""
			return cfg
		},
		clipboard: cb,
	}

	var stdout, stderr bytes.Buffer
	root := newRootCmd(d)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err = root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestListCmd(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "everything",
			args:     []string{"list"},
			contains: []string{"Showing 3 of 3 prompts", "Intro Email", "Check-in", "Job Ad"},
		},
		{
			name:     "industry keeps all-industry prompts",
			args:     []string{"list", "--industry", "health"},
			contains: []string{"Showing 2 of 3 prompts", "Check-in", "Job Ad"},
			excludes: []string{"Intro Email"},
		},
		{
			name:     "job area and use case",
			args:     []string{"list", "--job-area", "Sales", "--use-case", "Cold Outreach"},
			contains: []string{"Showing 1 of 3 prompts", "Intro Email"},
			excludes: []string{"Check-in"},
		},
		{
			name:     "no match",
			args:     []string{"list", "-s", "zebra"},
			contains: []string{"Showing 0 of 3 prompts", `No prompts match "zebra".`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, &recordingClipboard{}, tt.args...)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestListCmd_JSONSortsSearchResults(t *testing.T) {
	out, _, err := execute(t, &recordingClipboard{}, "list", "--search", "write", "--json")
	require.NoError(t, err)

	var prompts []models.MappedPrompt
	require.NoError(t, json.Unmarshal([]byte(out), &prompts))
	require.Len(t, prompts, 2)
	assert.Equal(t, "p2", prompts[0].ID)
	assert.Equal(t, "p1", prompts[1].ID)
}

func TestFiltersCmd(t *testing.T) {
	out, _, err := execute(t, &recordingClipboard{}, "filters", "--industry", "fin", "--job-area", "Sales")
	require.NoError(t, err)
	assert.Contains(t, out, "* Finance (fin)")
	assert.Contains(t, out, "* Sales")
	assert.NotContains(t, out, "People")
	assert.Contains(t, out, "Use cases (Sales):")
	assert.Contains(t, out, "Cold Outreach")
	assert.Contains(t, out, "Follow-up")
}

func TestShowCmd(t *testing.T) {
	out, _, err := execute(t, &recordingClipboard{}, "show", "p3")
	require.NoError(t, err)
	assert.Contains(t, out, "Job Ad")
	assert.Contains(t, out, "People / Hiring")
	assert.Contains(t, out, "Industries: Healthcare")
	assert.Contains(t, out, "Draft a job ad.")

	_, _, err = execute(t, &recordingClipboard{}, "show", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt not found")
}

func TestCopyCmd(t *testing.T) {
	cb := &recordingClipboard{}
	out, _, err := execute(t, cb, "copy", "p2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Write a check-in."}, cb.texts)
	assert.Equal(t, "Copied: Check-in\n", out)
}

func TestCopyCmd_Failure(t *testing.T) {
	cb := &recordingClipboard{err: errors.New("no display")}
	_, stderr, err := execute(t, cb, "copy", "p1")
	require.Error(t, err)

	var writeErr *clipboard.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "p1", writeErr.PromptID)
	assert.Equal(t, clipboard.FailedStatus+"\n", stderr)
}

func TestLoadFailure(t *testing.T) {
	_, _, err := execute(t, &recordingClipboard{}, "list", "--library", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), library.LoadFailedMessage)
}
