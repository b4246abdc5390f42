package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"typefence/internal/config"
	"typefence/internal/diag"
	"typefence/internal/diagfmt"
	"typefence/internal/driver"
	"typefence/internal/source"
	"typefence/internal/ui"
	"typefence/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.py|directory>",
	Short: "Report imports that are only needed for typing",
	Long:  "Analyze Python source for imports used exclusively in type annotations and report how to defer them",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|sarif)")
	checkCmd.Flags().Bool("strict", false, "flag sibling imports of runtime modules too")
	checkCmd.Flags().Bool("no-warnings", false, "only report errors")
	checkCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("preview", false, "include before/after previews with fix suggestions")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Bool("disk-cache", false, "reuse cached results for unchanged files")
	checkCmd.Flags().Bool("progress", false, "show live progress for directory runs")
}

func runCheck(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	noWarnings, err := cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return err
	}
	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return err
	}
	if noWarnings && warningsAsErrors {
		return fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return err
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return err
	}
	preview, err := cmd.Flags().GetBool("preview")
	if err != nil {
		return err
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	showProgress, err := cmd.Flags().GetBool("progress")
	if err != nil {
		return err
	}

	opts, err := buildDriverOptions(cmd, targetPath)
	if err != nil {
		return err
	}
	opts.IgnoreWarnings = noWarnings
	opts.WarningsAsErrors = warningsAsErrors
	opts.Jobs = jobs

	enableCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return err
	}
	if enableCache {
		cache, cacheErr := driver.OpenDiskCache("typefence")
		if cacheErr != nil {
			fmt.Fprintf(os.Stderr, "warning: disk cache disabled: %v\n", cacheErr)
		} else {
			opts.Cache = cache
		}
	}

	info, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	color, err := useColor(cmd)
	if err != nil {
		return err
	}
	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	showFixes := suggest || preview

	prettyOpts := diagfmt.PrettyOpts{
		Color:       color,
		Context:     2,
		PathMode:    pathMode,
		ShowNotes:   withNotes,
		ShowFixes:   showFixes,
		ShowPreview: preview,
	}
	jsonOpts := diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         pathMode,
		IncludeNotes:     withNotes,
		IncludeFixes:     showFixes,
		IncludePreviews:  preview,
	}
	sarifMeta := diagfmt.SarifRunMeta{
		ToolName:       "typefence",
		ToolVersion:    version.Version,
		InvocationArgs: os.Args,
	}

	merged := diag.NewBag(maxBagSize(opts.MaxDiagnostics))
	var run *driverRun

	if info.IsDir() {
		run, err = checkDirectory(cmd, targetPath, opts, showProgress)
		if err != nil {
			return err
		}
		for _, r := range run.results {
			if r.Bag != nil {
				merged.Merge(r.Bag)
			}
		}
	} else {
		fs, res, runErr := driver.CheckFile(cmd.Context(), targetPath, opts)
		if runErr != nil {
			return fmt.Errorf("check failed: %w", runErr)
		}
		run = &driverRun{fs: fs, results: []driver.FileResult{*res}}
		merged.Merge(res.Bag)
	}

	merged.Sort()
	merged.Dedup()

	switch format {
	case "pretty":
		diagfmt.Pretty(os.Stdout, merged, run.fs, prettyOpts)
	case "json":
		if err := diagfmt.JSON(os.Stdout, merged, run.fs, jsonOpts); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	case "sarif":
		if err := diagfmt.Sarif(os.Stdout, merged, run.fs, sarifMeta); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if hasActionable(merged) {
		// Diagnostics already printed; keep cobra quiet.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}
	return nil
}

type driverRun struct {
	fs      *source.FileSet
	results []driver.FileResult
}

func checkDirectory(cmd *cobra.Command, dir string, opts driver.Options, showProgress bool) (*driverRun, error) {
	if showProgress && isTerminal(os.Stdout) {
		files, err := driver.ListFiles(dir, opts.Include, opts.Exclude)
		if err != nil {
			return nil, err
		}
		events := make(chan driver.Event, 64)
		opts.Events = events

		type dirOutcome struct {
			fs      *source.FileSet
			results []driver.FileResult
			err     error
		}
		done := make(chan dirOutcome, 1)
		go func() {
			fs, results, err := driver.CheckDir(cmd.Context(), dir, opts)
			close(events)
			done <- dirOutcome{fs: fs, results: results, err: err}
		}()

		model := ui.NewProgressModel("checking "+dir, files, events)
		if _, err := tea.NewProgram(model).Run(); err != nil {
			return nil, err
		}
		outcome := <-done
		if outcome.err != nil {
			return nil, fmt.Errorf("check failed: %w", outcome.err)
		}
		return &driverRun{fs: outcome.fs, results: outcome.results}, nil
	}

	fs, results, err := driver.CheckDir(cmd.Context(), dir, opts)
	if err != nil {
		return nil, fmt.Errorf("check failed: %w", err)
	}
	return &driverRun{fs: fs, results: results}, nil
}

// buildDriverOptions merges the discovered manifest with command flags.
func buildDriverOptions(cmd *cobra.Command, targetPath string) (driver.Options, error) {
	startDir := targetPath
	if info, err := os.Stat(targetPath); err == nil && !info.IsDir() {
		startDir = "."
	}
	manifest, found, err := config.Load(startDir)
	if err != nil {
		return driver.Options{}, err
	}
	if !found {
		manifest = config.Default()
	}

	opts := driver.Options{
		Settings:   manifest.Settings(),
		Categorize: manifest.CategorizeOptions(),
		Include:    manifest.Config.Files.Include,
		Exclude:    manifest.Config.Files.Exclude,
	}

	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return driver.Options{}, err
	}
	if strict {
		opts.Settings.Strict = true
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return driver.Options{}, err
	}
	if manifest.Config.Output.MaxDiagnostics > 0 && !cmd.Root().PersistentFlags().Changed("max-diagnostics") {
		maxDiagnostics = manifest.Config.Output.MaxDiagnostics
	}
	opts.MaxDiagnostics = maxDiagnostics

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return driver.Options{}, err
	}
	opts.EnableTimings = showTimings

	return opts, nil
}

// hasActionable reports whether any diagnostic should fail the run.
func hasActionable(bag *diag.Bag) bool {
	for _, d := range bag.Items() {
		if d.Severity >= diag.SevWarning {
			return true
		}
	}
	return false
}

func maxBagSize(maxDiagnostics int) int {
	if maxDiagnostics <= 0 {
		return 1000
	}
	return maxDiagnostics
}
