package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/promptvault/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [project-dir]",
	Short: "Initialize a promptvault project",
	Long: `Create promptvault.yaml, the live prompt directory and a .gitignore
entry for local state.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing promptvault.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	projectDir := "."
	if len(args) > 0 {
		projectDir = args[0]
	}

	// Create directory structure
	for _, dir := range []string{config.DefaultLiveDir, ".promptvault"} {
		path := filepath.Join(projectDir, dir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	cfgPath := filepath.Join(projectDir, config.FileName)
	if fileExists(cfgPath) && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}
	if err := os.WriteFile(cfgPath, []byte(config.Template), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", config.FileName, err)
	}

	if err := createGitignore(projectDir); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Initialized promptvault project in %s\n", projectDir)
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  1. Put your prompt files in %s/\n", config.DefaultLiveDir)
	fmt.Fprintln(w, "  2. Run 'promptvault snapshot --label baseline'")
	fmt.Fprintln(w, "  3. Enable the approval hook in promptvault.yaml if changes need review")
	return nil
}

// createGitignore appends the local state entries unless already present.
func createGitignore(projectDir string) error {
	path := filepath.Join(projectDir, ".gitignore")

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read .gitignore: %w", err)
	}
	if containsLine(string(existing), ".promptvault/") {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to write .gitignore: %w", err)
	}
	defer f.Close()

	content := config.Gitignore
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		content = "\n" + content
	}
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write .gitignore: %w", err)
	}
	return nil
}

func containsLine(content, line string) bool {
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) == line {
			return true
		}
	}
	return false
}
