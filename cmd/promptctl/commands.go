package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thebtf/promptdeck/internal/clipboard"
	"github.com/thebtf/promptdeck/internal/config"
	"github.com/thebtf/promptdeck/internal/filter"
	"github.com/thebtf/promptdeck/internal/library"
	"github.com/thebtf/promptdeck/internal/view"
	"github.com/thebtf/promptdeck/pkg/models"
)

// deps are the collaborators the commands need. Tests replace them.
type deps struct {
	loadConfig func() *config.Config
	clipboard  clipboard.Writer
}

func defaultDeps() deps {
	return deps{
		loadConfig: func() *config.Config {
			cfg, err := config.Load()
			if err != nil {
				log.Warn().Err(err).Msg("Failed to load config, using defaults")
				return config.Default()
			}
			return cfg
		},
		clipboard: clipboard.SystemWriter{},
	}
}

type selectionFlags struct {
	industry string
	jobArea  string
	useCase  string
	search   string
}

func (f selectionFlags) state() filter.State {
	return filter.State{IndustryID: f.industry, JobArea: f.jobArea, UseCase: f.useCase, Query: f.search}
}

func (f *selectionFlags) register(cmd *cobra.Command, withUseCase, withSearch bool) {
	cmd.Flags().StringVar(&f.industry, "industry", models.AllIndustries, "Industry id")
	cmd.Flags().StringVar(&f.jobArea, "job-area", models.AllJobAreas, "Job area name")
	if withUseCase {
		cmd.Flags().StringVar(&f.useCase, "use-case", models.AllUseCases, "Use case name (needs --job-area)")
	}
	if withSearch {
		cmd.Flags().StringVarP(&f.search, "search", "s", "", "Search title, template, tags and industries")
	}
}

func newRootCmd(d deps) *cobra.Command {
	var (
		librarySource string
		debug         bool
	)

	root := &cobra.Command{
		Use:   "promptctl",
		Short: "Browse, search and copy prompts from the prompt library",
		Long: `promptctl reads the same prompt library as the dashboard.

Filters cascade: industry, then job area, then use case. Prompts tagged for all
industries appear under every industry. A job area or use case with no prompts
under the chosen industry is ignored.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&librarySource, "library", "", "Dataset file or URL (default: settings)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	loadCatalog := func(ctx context.Context) (*library.Catalog, *config.Config, error) {
		cfg := d.loadConfig()
		if librarySource != "" {
			cfg.LibrarySource = librarySource
		}
		store := library.NewStore(library.Options{
			Source:    cfg.LibrarySource,
			CacheBust: cfg.CacheBust,
			PackDir:   cfg.PackDir,
			Timeout:   cfg.FetchTimeout,
		})
		c, err := store.Load(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", library.UserMessage(err), err)
		}
		return c, cfg, nil
	}

	root.AddCommand(
		newListCmd(loadCatalog),
		newFiltersCmd(loadCatalog),
		newShowCmd(loadCatalog),
		newCopyCmd(loadCatalog, d.clipboard),
	)
	return root
}

type catalogLoader func(ctx context.Context) (*library.Catalog, *config.Config, error)

func newListCmd(load catalogLoader) *cobra.Command {
	var (
		sel    selectionFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List prompts for a selection",
		Example: `  promptctl list --industry fin --job-area Sales
  promptctl list --search "follow up"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, err := load(cmd.Context())
			if err != nil {
				return err
			}
			st := filter.Normalize(c, sel.state())
			prompts := filter.NewEngine(cfg.Locale).VisiblePrompts(c, st)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), prompts)
			}
			return printList(cmd.OutOrStdout(), c, st, prompts)
		},
	}
	sel.register(cmd, true, true)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print prompts as JSON")
	return cmd
}

func newFiltersCmd(load catalogLoader) *cobra.Command {
	var sel selectionFlags
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Show industries and the job areas and use cases available for a selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := load(cmd.Context())
			if err != nil {
				return err
			}
			st := filter.Normalize(c, sel.state())
			return printFilters(cmd.OutOrStdout(), c, st)
		},
	}
	sel.register(cmd, false, false)
	return cmd
}

func newShowCmd(load catalogLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "show <prompt-id>",
		Short: "Print one prompt with its template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := load(cmd.Context())
			if err != nil {
				return err
			}
			p, ok := c.Prompt(args[0])
			if !ok {
				return fmt.Errorf("prompt not found: %s", args[0])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, p.Title)
			fmt.Fprintf(out, "%s / %s\n", p.JobArea, p.UseCase)
			if len(p.IndustryNames) > 0 {
				fmt.Fprintf(out, "Industries: %s\n", strings.Join(p.IndustryNames, ", "))
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, p.Template)
			return nil
		},
	}
}

func newCopyCmd(load catalogLoader, w clipboard.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <prompt-id>",
		Short: "Copy a prompt template to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := load(cmd.Context())
			if err != nil {
				return err
			}
			p, ok := c.Prompt(args[0])
			if !ok {
				return fmt.Errorf("prompt not found: %s", args[0])
			}

			copier := clipboard.NewCopier(w, clipboard.WithOnChange(func(_ string, st clipboard.Status) {
				switch {
				case st == clipboard.Idle:
				case st.Label == clipboard.CopiedLabel:
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", st.Message, p.Title)
				default:
					fmt.Fprintln(cmd.ErrOrStderr(), st.Message)
				}
			}))
			defer copier.Close()
			return copier.Copy(cmd.Context(), p.ID, p.Template)
		},
	}
}

func printList(out io.Writer, c *library.Catalog, st filter.State, prompts []models.MappedPrompt) error {
	fmt.Fprintln(out, view.ResultsMeta(len(prompts), c.Count()))
	if len(prompts) == 0 {
		fmt.Fprintln(out, view.EmptyMessage(st))
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tJOB AREA\tUSE CASE")
	for _, p := range prompts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Title, p.JobArea, p.UseCase)
	}
	return tw.Flush()
}

func printFilters(out io.Writer, c *library.Catalog, st filter.State) error {
	fmt.Fprintln(out, "Industries:")
	for _, ind := range c.Industries() {
		marker := " "
		if ind.ID == st.IndustryID {
			marker = "*"
		}
		fmt.Fprintf(out, " %s %s (%s)\n", marker, ind.Name, ind.ID)
	}

	fmt.Fprintln(out, "Job areas:")
	for _, name := range filter.AvailableJobAreas(c, st.IndustryID) {
		marker := " "
		if name == st.JobArea {
			marker = "*"
		}
		fmt.Fprintf(out, " %s %s\n", marker, name)
	}

	if st.JobAreaSelected() {
		fmt.Fprintf(out, "Use cases (%s):\n", st.JobArea)
		for _, name := range filter.AvailableUseCases(c, st.IndustryID, st.JobArea) {
			fmt.Fprintf(out, "   %s\n", name)
		}
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
