package handlers

import (
	"context"
	"fmt"
	"os"
)

// Init runs the configuration wizard and writes the resulting file.
func Init(ctx context.Context, outputPath string, force bool) error {
	if _, err := os.Stat(outputPath); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", outputPath)
	} else if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("checking output file: %w", err)
	}

	cfg, err := runWizard(ctx)
	if err != nil {
		return err
	}
	if err := writeConfigFile(outputPath, cfg); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote configuration to %s\n", outputPath)
	fmt.Fprintln(stdout, "Next: run 'outpost up' to provision the deployment.")
	return nil
}
