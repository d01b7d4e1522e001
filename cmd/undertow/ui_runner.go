package main

import (
	"context"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"undertow/internal/driver"
	"undertow/internal/source"
	"undertow/internal/ui"
)

type lowerOutcome struct {
	fileSet *source.FileSet
	results []*driver.UnitResult
	err     error
}

func runLowerWithUI(ctx context.Context, title, dir string, jobs int, opts driver.Options) (*source.FileSet, []*driver.UnitResult, error) {
	paths, err := driver.ListUnits(dir)
	if err != nil {
		return nil, nil, err
	}
	units := make([]string, len(paths))
	for i, path := range paths {
		units[i] = filepath.Base(path)
	}

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan lowerOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Sink = driver.ChannelSink{Ch: events}
		fileSet, results, err := driver.LowerDir(ctx, dir, jobs, optsCopy)
		outcomeCh <- lowerOutcome{fileSet: fileSet, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, units, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.fileSet, outcome.results, uiErr
	}
	return outcome.fileSet, outcome.results, outcome.err
}
