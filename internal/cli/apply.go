package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	verrors "github.com/cadre-oss/promptvault/internal/errors"
)

var (
	applyContent     string
	applyFromFile    string
	applyDescription string
)

var applyCmd = &cobra.Command{
	Use:   "apply <file>",
	Short: "Back up the live directory, then overwrite one file",
	Long: `Apply a change to one live prompt file.

A full snapshot is always taken first and recorded with the change
description, so the edit can be undone with 'promptvault rollback'.

Examples:
  promptvault apply agent.system.main.md --from-file new.md -d "tighten tone"
  cat new.md | promptvault apply agent.system.main.md --from-file - -d "tone"
  promptvault apply notes.md --content "# Notes" -d "reset notes"`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

var (
	rollbackNoBackup bool
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <version-id>",
	Short: "Restore the live directory to a version",
	Long: `Restore every file of a version into the live directory.

The current state is first saved as pre_rollback_<version-id> unless
--no-backup is given. Live files that the version does not contain are
left in place.`,
	Args: cobra.ExactArgs(1),
	RunE: runRollback,
}

func init() {
	applyCmd.Flags().StringVar(&applyContent, "content", "", "new file content")
	applyCmd.Flags().StringVarP(&applyFromFile, "from-file", "f", "", "read new content from a file ('-' for stdin)")
	applyCmd.Flags().StringVarP(&applyDescription, "description", "d", "", "why the change is made (recorded in the backup)")
	applyCmd.MarkFlagsMutuallyExclusive("content", "from-file")
	_ = applyCmd.MarkFlagRequired("description")

	rollbackCmd.Flags().BoolVar(&rollbackNoBackup, "no-backup", false, "skip the pre-rollback snapshot")
}

func readApplyContent(cmd *cobra.Command) ([]byte, error) {
	switch {
	case applyFromFile == "-":
		return io.ReadAll(cmd.InOrStdin())
	case applyFromFile != "":
		content, err := os.ReadFile(applyFromFile)
		if err != nil {
			return nil, verrors.IO(fmt.Sprintf("failed to read %s", applyFromFile), err)
		}
		return content, nil
	case cmd.Flags().Changed("content"):
		return []byte(applyContent), nil
	}
	return nil, fmt.Errorf("content required: pass --content or --from-file")
}

func runApply(cmd *cobra.Command, args []string) error {
	content, err := readApplyContent(cmd)
	if err != nil {
		return err
	}

	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	backupID, err := v.ApplyChange(args[0], content, applyDescription)
	if err != nil {
		return err
	}

	data := map[string]interface{}{"file": args[0], "backup_id": backupID, "bytes": len(content)}
	return render(cmd, "change applied", data, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Applied change to %s (%d bytes)\n", args[0], len(content))
		fmt.Fprintf(w, "  Backup: %s\n", backupID)
		fmt.Fprintf(w, "  Undo:   promptvault rollback %s\n", backupID)
	})
}

func runRollback(cmd *cobra.Command, args []string) error {
	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	result, err := v.Rollback(args[0], !rollbackNoBackup)
	if err != nil {
		return err
	}

	return render(cmd, "rollback completed", result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Restored %d files from %s\n", len(result.Restored), result.VersionID)
		if result.BackupID != "" {
			fmt.Fprintf(w, "  Previous state saved as %s\n", result.BackupID)
		}
	})
}
