package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/supaloboto/sisuo/internal/cli/output"
	intconfig "github.com/supaloboto/sisuo/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new SiSuo project",
		Long: `Initialize a new SiSuo project with a configuration file and a script.

This creates:
  - sisuo.yaml configuration file
  - scripts/ directory with a starter script

Use --example to create a project with a params file and scripts
showing parameters, derived values and user functions.`,
		Example: `  # Initialize in current directory
  sisuo init

  # Initialize with worked examples
  sisuo init --example

  # Initialize in a new directory
  sisuo init my-project --example

  # Force overwrite existing config
  sisuo init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			// Create renderer
			cfg := getConfig()
			mode := output.Mode(cfg.OutputFormat)
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			template := "minimal"
			if example {
				template = "example"
			}
			return runInit(r, dir, template, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Create a project with example scripts and parameters")

	return cmd
}

func runInit(r *output.Renderer, dir, template string, force bool) error {
	// Create directory if specified and doesn't exist
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Check if config already exists
	if existing := intconfig.FindConfigFile(dir); existing != "" && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", filepath.Base(existing))
	}

	if err := copyTemplate(template, dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	// List created files by category
	files, _ := listTemplateFiles(template)
	groups := groupTemplateFiles(files)

	r.Header(2, "Configuration")
	for _, f := range groups["config"] {
		r.StatusLine(f, "success", "")
	}
	r.Println("")
	r.Header(2, "Scripts")
	for _, f := range groups["scripts"] {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("SiSuo project initialized!")
	r.Println("")
	r.Println("Next steps:")
	if template == "example" {
		r.Println("  sisuo eval scripts/invoice.ss --params params.yaml")
		r.Println("  sisuo eval scripts/loan.ss --param principal=20000 --param years=5")
		r.Println("  sisuo graph scripts/invoice.ss")
	} else {
		r.Println("  sisuo eval scripts/main.ss --param name=World")
		r.Println("  sisuo repl --load scripts/main.ss")
	}

	return nil
}
