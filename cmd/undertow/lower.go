package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"undertow/internal/diagfmt"
	"undertow/internal/driver"
	"undertow/internal/ir"
	"undertow/internal/project"
	"undertow/internal/source"
)

const noManifestMessage = "no undertow.toml found; run `undertow init` or pass a directory explicitly"

var lowerCmd = &cobra.Command{
	Use:   "lower [flags] [path]",
	Short: "Lower every unit script in a project",
	Long:  "Lower the project's declaration scripts into symbolic modules, using undertow.toml when present.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  lowerExecution,
}

func init() {
	lowerCmd.Flags().StringSlice("steps", nil, "transformation steps to schedule (overrides the manifest)")
	lowerCmd.Flags().Int("jobs", 0, "units to lower in parallel (0 = all CPUs)")
	lowerCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	lowerCmd.Flags().Bool("emit-ir", false, "print the lowered modules")
	lowerCmd.Flags().Bool("json", false, "emit diagnostics as JSON")
	lowerCmd.Flags().Bool("no-cache", false, "skip the unit summary cache")
}

type lowerSettings struct {
	dir            string
	steps          []string
	jobs           int
	maxDiagnostics int
	cacheEnabled   bool
}

func lowerExecution(cmd *cobra.Command, args []string) error {
	stepNames, err := cmd.Flags().GetStringSlice("steps")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	emitIR, err := cmd.Flags().GetBool("emit-ir")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	colorValue, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}

	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	settings, err := resolveLowerSettings(args, stepNames, jobs, maxDiagnostics)
	if err != nil {
		return err
	}
	if noCache {
		settings.cacheEnabled = false
	}

	steps, err := resolveSteps(settings.steps)
	if err != nil {
		return err
	}

	opts := driver.Options{
		MaxDiagnostics: settings.maxDiagnostics,
		Steps:          steps,
		Timings:        showTimings,
	}

	ctx := context.Background()
	var (
		fileSet *source.FileSet
		results []*driver.UnitResult
	)
	if shouldUseTUI(uiModeValue) && !quiet {
		fileSet, results, err = runLowerWithUI(ctx, "lowering "+settings.dir, settings.dir, settings.jobs, opts)
	} else {
		fileSet, results, err = driver.LowerDir(ctx, settings.dir, settings.jobs, opts)
	}
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no %s files under %s", driver.UnitExt, settings.dir)
	}

	if settings.cacheEnabled {
		if cacheErr := storeSummaries(fileSet, results, scheduledPassNames(steps)); cacheErr != nil && !quiet {
			fmt.Fprintf(os.Stderr, "cache: %v\n", cacheErr)
		}
	}

	return reportResults(fileSet, results, reportOptions{
		color:      colorEnabled(colorValue),
		quiet:      quiet,
		timings:    showTimings,
		emitIR:     emitIR,
		asJSON:     asJSON,
		maxPerunit: settings.maxDiagnostics,
	})
}

// resolveLowerSettings merges the manifest with command-line overrides.
// An explicit path argument wins over the manifest inputs directory.
func resolveLowerSettings(args, stepNames []string, jobs, maxDiagnostics int) (lowerSettings, error) {
	settings := lowerSettings{
		steps:          stepNames,
		jobs:           jobs,
		maxDiagnostics: maxDiagnostics,
	}

	startDir := "."
	if len(args) > 0 {
		startDir = args[0]
	}
	manifest, found, err := project.Load(startDir)
	if err != nil {
		return lowerSettings{}, err
	}
	if found {
		settings.dir = manifest.InputsDir()
		settings.cacheEnabled = manifest.Config.Cache.Enabled
		if len(settings.steps) == 0 {
			settings.steps = manifest.Config.Lower.Steps
		}
		if settings.jobs == 0 {
			settings.jobs = manifest.Config.Lower.Jobs
		}
		if manifest.Config.Lower.MaxDiagnostics > 0 {
			settings.maxDiagnostics = manifest.Config.Lower.MaxDiagnostics
		}
	}
	if len(args) > 0 {
		settings.dir = args[0]
	}
	if settings.dir == "" {
		return lowerSettings{}, errors.New(noManifestMessage)
	}
	return settings, nil
}

func storeSummaries(fileSet *source.FileSet, results []*driver.UnitResult, passNames []string) error {
	cache, err := driver.OpenDiskCache("undertow")
	if err != nil {
		return err
	}
	for _, res := range results {
		file, ok := fileSet.GetByPath(res.Path)
		if !ok {
			continue
		}
		key := project.HashBytes(file.Content)
		if err := cache.Put(key, driver.Summarize(res, passNames, key)); err != nil {
			return err
		}
	}
	return nil
}

type reportOptions struct {
	color      bool
	quiet      bool
	timings    bool
	emitIR     bool
	asJSON     bool
	maxPerunit int
}

func reportResults(fileSet *source.FileSet, results []*driver.UnitResult, opts reportOptions) error {
	failed := false
	for _, res := range results {
		if res.Err != nil {
			failed = true
			fmt.Fprintf(os.Stderr, "%s: %v\n", res.Path, res.Err)
		}
		if res.Bag == nil {
			continue
		}
		res.Bag.Sort()
		if res.Bag.HasErrors() {
			failed = true
		}
		if opts.asJSON {
			jsonOpts := diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         diagfmt.PathModeAuto,
				Max:              opts.maxPerunit,
				IncludeNotes:     true,
			}
			if err := diagfmt.JSON(os.Stdout, res.Bag, fileSet, jsonOpts); err != nil {
				return err
			}
		} else {
			diagfmt.Pretty(os.Stdout, res.Bag, fileSet, diagfmt.PrettyOpts{
				Color:     opts.color,
				PathMode:  diagfmt.PathModeAuto,
				ShowNotes: true,
			})
		}
		if opts.timings && !opts.quiet {
			printStageTimings(os.Stdout, filepath.Base(res.Path), res.Timings, res.Passes)
		}
		if opts.emitIR && res.Module != nil {
			if err := ir.Dump(os.Stdout, res.Module); err != nil {
				return err
			}
		}
	}
	if failed {
		return errors.New("lowering finished with errors")
	}
	if !opts.quiet && !opts.asJSON {
		fmt.Fprintf(os.Stdout, "lowered %d unit(s)\n", len(results))
	}
	return nil
}
