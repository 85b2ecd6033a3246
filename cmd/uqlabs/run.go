package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"pkt.systems/uqlabs/core"
	"pkt.systems/uqlabs/internal/eventbus"
	"pkt.systems/uqlabs/internal/format"
	"pkt.systems/uqlabs/schema"
)

type runOptions struct {
	cfgPath       string
	context       string
	mode          string
	language      string
	shots         int
	noise         bool
	noiseStrength float64
	noiseMetrics  bool
	events        bool
	plain         bool
	stopOnFailure bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run <file|glob>...",
		Short: "Run source files as notebook cells",
		Long: "Each matched file becomes one cell of a fresh notebook, in sorted order.\n" +
			"Markdown files (.md) become markdown cells and are rendered; everything\n" +
			"else is a code cell whose language follows the file extension.\n" +
			"Patterns support ** (e.g. circuits/**/*.qasm).",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&opts.context, "context", string(schema.RunContextNotebook), "run context (notebook|simulation)")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "simulation mode (static|safe-rl)")
	cmd.Flags().StringVar(&opts.language, "language", "", "override the language of every code cell")
	cmd.Flags().IntVar(&opts.shots, "shots", 0, "simulation shots (default from config)")
	cmd.Flags().BoolVar(&opts.noise, "noise", false, "enable the simulated noise model")
	cmd.Flags().Float64Var(&opts.noiseStrength, "noise-strength", 0.01, "noise strength when --noise is set")
	cmd.Flags().BoolVar(&opts.noiseMetrics, "noise-metrics", false, "report noise metrics when --noise is set")
	cmd.Flags().BoolVar(&opts.events, "events", false, "print service events to stderr")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "disable terminal styling")
	cmd.Flags().BoolVar(&opts.stopOnFailure, "stop-on-failure", false, "stop at the first failing cell")
	return cmd
}

type sourceFile struct {
	path     string
	kind     schema.CellKind
	language schema.Language
	content  string
}

func runFiles(ctx context.Context, stdout, stderr io.Writer, patterns []string, opts runOptions) error {
	paths, err := expandPatterns(patterns)
	if err != nil {
		return err
	}
	runCtx, err := parseRunContext(opts.context)
	if err != nil {
		return err
	}
	var mode schema.SimulationMode
	if opts.mode != "" {
		if mode, err = schema.ParseSimulationMode(opts.mode); err != nil {
			return err
		}
	}
	var override schema.Language
	if opts.language != "" {
		if override, err = schema.ParseLanguage(opts.language); err != nil {
			return err
		}
	}
	sources, err := readSources(paths, override)
	if err != nil {
		return err
	}
	render, err := newRenderer(stdout, opts.plain)
	if err != nil {
		return err
	}

	env, err := loadRuntime(ctx, opts.cfgPath)
	if err != nil {
		return err
	}
	env.serviceCfg.PrewarmEnabled = false
	srv, stop, err := env.startLocal(ctx)
	if err != nil {
		return err
	}
	defer stop()

	if opts.events {
		events, cancel := srv.Events().Subscribe(eventbus.All)
		done := make(chan struct{})
		go func() {
			defer close(done)
			printEvents(stderr, events)
		}()
		defer func() {
			cancel()
			<-done
		}()
	}

	svc := srv.Service()
	nb, err := freshNotebook(ctx, svc, "uqlabs run")
	if err != nil {
		return err
	}
	req := schema.RunCellRequest{
		NotebookID: nb,
		Context:    runCtx,
		Mode:       mode,
		Shots:      opts.shots,
		Noise: schema.NoiseOptions{
			Enabled:  opts.noise,
			Strength: opts.noiseStrength,
			Metrics:  opts.noiseMetrics,
		},
	}

	cells := make([]schema.CellID, 0, len(sources))
	for _, src := range sources {
		id, err := addSourceCell(ctx, svc, nb, src)
		if err != nil {
			return fmt.Errorf("%s: %w", src.path, err)
		}
		cells = append(cells, id)
	}

	summary := schema.RunAllResponse{}
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if src.kind == schema.CellKindMarkdown {
			_, _ = fmt.Fprint(stdout, render.Markdown(src.content))
			continue
		}
		if strings.TrimSpace(src.content) == "" {
			summary.Skipped++
			continue
		}
		req.CellID = cells[i]
		resp, err := svc.RunCell(ctx, req)
		if err != nil {
			return fmt.Errorf("%s: %w", src.path, err)
		}
		summary.Ran++
		if resp.Error != "" {
			summary.Failed++
		}
		_, _ = fmt.Fprintln(stdout, render.CellResult(src.path, resp.Cell, resp.Error))
		if resp.Error != "" && opts.stopOnFailure {
			break
		}
	}
	_, _ = fmt.Fprintln(stdout, render.Summary(summary))
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d cell(s) failed", summary.Failed, summary.Ran)
	}
	return nil
}

// expandPatterns resolves doublestar globs. Plain paths pass through so a
// missing file surfaces as a read error. Results are sorted and de-duplicated.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		var matches []string
		if strings.ContainsAny(pattern, "*?[{") {
			found, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", pattern, err)
			}
			if len(found) == 0 {
				return nil, fmt.Errorf("pattern %q matched no files", pattern)
			}
			sort.Strings(found)
			matches = found
		} else {
			matches = []string{filepath.Clean(pattern)}
		}
		for _, match := range matches {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			out = append(out, match)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no files to run")
	}
	return out, nil
}

func readSources(paths []string, override schema.Language) ([]sourceFile, error) {
	out := make([]sourceFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		src := sourceFile{path: path, content: string(data)}
		ext := filepath.Ext(path)
		switch {
		case strings.EqualFold(ext, ".md"):
			src.kind = schema.CellKindMarkdown
		case override != "":
			src.kind = schema.CellKindCode
			src.language = override
		default:
			src.kind = schema.CellKindCode
			src.language = schema.LanguageForExtension(ext)
		}
		out = append(out, src)
	}
	return out, nil
}

func parseRunContext(value string) (schema.RunContext, error) {
	switch schema.RunContext(strings.ToLower(strings.TrimSpace(value))) {
	case "", schema.RunContextNotebook:
		return schema.RunContextNotebook, nil
	case schema.RunContextSimulation:
		return schema.RunContextSimulation, nil
	default:
		return "", fmt.Errorf("%w: unknown run context %q", schema.ErrInvalidRequest, value)
	}
}

// freshNotebook creates a notebook and removes its starter cells.
func freshNotebook(ctx context.Context, svc core.Service, name string) (schema.NotebookID, error) {
	created, err := svc.CreateNotebook(ctx, schema.CreateNotebookRequest{Name: name})
	if err != nil {
		return "", err
	}
	id := created.Notebook.ID
	for _, cell := range created.Notebook.Cells {
		if _, err := svc.DeleteCell(ctx, schema.DeleteCellRequest{NotebookID: id, CellID: cell.ID}); err != nil {
			return "", err
		}
	}
	return id, nil
}

func addSourceCell(ctx context.Context, svc core.Service, nb schema.NotebookID, src sourceFile) (schema.CellID, error) {
	added, err := svc.AddCell(ctx, schema.AddCellRequest{NotebookID: nb, Kind: src.kind})
	if err != nil {
		return "", err
	}
	id := added.Cell.ID
	if src.kind == schema.CellKindCode {
		if _, err := svc.UpdateCellLanguage(ctx, schema.UpdateCellLanguageRequest{NotebookID: nb, CellID: id, Language: src.language}); err != nil {
			return "", err
		}
	}
	if _, err := svc.UpdateCellContent(ctx, schema.UpdateCellContentRequest{NotebookID: nb, CellID: id, Content: src.content}); err != nil {
		return "", err
	}
	return id, nil
}

func printEvents(w io.Writer, events <-chan eventbus.Event) {
	renderer := format.NewPlainRenderer()
	for event := range events {
		lines, err := renderer.FormatEvent(event)
		if err != nil {
			continue
		}
		for _, line := range lines {
			_, _ = fmt.Fprintln(w, line)
		}
	}
}
