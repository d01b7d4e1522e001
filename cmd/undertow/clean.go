package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"undertow/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the undertow unit summary cache",
	Long:  "Remove the on-disk cache of lowered unit summaries.",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func runClean(_ *cobra.Command, _ []string) error {
	cache, err := driver.OpenDiskCache("undertow")
	if err != nil {
		return err
	}
	dir := cache.Dir()
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stdout, "cache directory not found")
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %q: %w", dir, err)
	}
	fmt.Fprintf(os.Stdout, "removed %s\n", dir)
	return nil
}
