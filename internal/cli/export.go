package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	verrors "github.com/cadre-oss/promptvault/internal/errors"
)

var exportArchive bool

var exportCmd = &cobra.Command{
	Use:   "export <version-id> <dest>",
	Short: "Copy a version out of the store",
	Long: `Copy a version, metadata included, to a directory or a tar.gz archive.

Examples:
  promptvault export baseline ./baseline            # Directory copy
  promptvault export baseline baseline.tar.gz -a    # Compressed archive`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().BoolVarP(&exportArchive, "archive", "a", false, "write a tar.gz archive instead of a directory")
}

func runExport(cmd *cobra.Command, args []string) error {
	id, dest := args[0], args[1]

	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	if exportArchive {
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return verrors.IO("failed to create archive directory", err)
		}
		if err := v.ExportArchive(id, dest); err != nil {
			return err
		}
	} else if err := v.ExportVersion(id, dest); err != nil {
		return err
	}

	data := map[string]interface{}{"version_id": id, "dest": dest, "archive": exportArchive}
	return render(cmd, "exported", data, func(w io.Writer) {
		if exportArchive {
			if info, err := os.Stat(dest); err == nil {
				fmt.Fprintf(w, "✓ Archive created: %s (%.2f KB)\n", dest, float64(info.Size())/1024)
				return
			}
		}
		fmt.Fprintf(w, "✓ Exported %s to %s\n", id, dest)
	})
}
