package cmd

import (
	"fmt"
	"os"

	"github.com/go-drift/segue/cmd/segue/internal/config"
)

func init() {
	RegisterCommand(&Command{
		Name:  "lint",
		Short: "Check segue.yaml presets",
		Long: `Check every transition preset in segue.yaml.

Each preset is resolved the way the coordinator would resolve it. Problems
that the runtime only reports as it goes (invalid durations, unknown effect
types, broken class overrides) are printed here in one pass.

Exits non-zero when any preset has findings.`,
		Usage: "segue lint [dir]",
		Run:   runLint,
	})
}

func runLint(args []string) error {
	dir, err := presetDir(args)
	if err != nil {
		return err
	}

	f, err := config.Load(dir)
	if err != nil {
		return err
	}

	presets, findings := config.Resolve(f, config.DefaultName(dir))

	fmt.Printf("Checked %d preset(s) in %s\n", len(presets), dir)
	if len(findings) == 0 {
		fmt.Println("No problems found.")
		return nil
	}

	fmt.Println()
	for _, finding := range findings {
		fmt.Printf("  %s\n", finding)
	}
	fmt.Println()
	return fmt.Errorf("%d problem(s) found", len(findings))
}

// presetDir picks the directory holding segue.yaml: an explicit argument,
// the enclosing module root, or the working directory.
func presetDir(args []string) (string, error) {
	for _, arg := range args {
		if arg != "" && arg[0] != '-' {
			return arg, nil
		}
	}
	if root, err := config.FindProjectRoot(); err == nil {
		return root, nil
	}
	return os.Getwd()
}
