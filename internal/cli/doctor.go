package cli

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/promptvault/internal/config"
	"github.com/cadre-oss/promptvault/internal/journal"
	"github.com/cadre-oss/promptvault/internal/vault"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and storage",
	Long:  "Validate the configuration, the live and versions directories, the journal and the lock.",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "promptvault doctor: checking your environment")
	fmt.Fprintln(w)
	allOK := true

	// 1. Go version
	fmt.Fprintf(w, "  Go version:   %s ✓\n", runtime.Version())

	// 2. OS/Arch
	fmt.Fprintf(w, "  Platform:     %s/%s ✓\n", runtime.GOOS, runtime.GOARCH)

	// 3. Configuration
	cfg, err := loadConfig()
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		fmt.Fprintf(w, "  Config:       INVALID ✗\n    → %v\n", err)
		fmt.Fprintln(w, "    → Run 'promptvault init' to create a project")
		fmt.Fprintln(w, "\nSome checks failed. See above for details.")
		return nil
	}
	fmt.Fprintf(w, "  Config:       %s ✓\n", configPath())

	// 4. Live directory
	liveDir := cfg.Path(cfg.LiveDir)
	if info, err := os.Stat(liveDir); err != nil || !info.IsDir() {
		fmt.Fprintf(w, "  Live dir:     %s NOT FOUND ✗\n", liveDir)
		allOK = false
	} else {
		fmt.Fprintf(w, "  Live dir:     %s ✓\n", liveDir)
	}

	// 5. Store, lock and journal
	v, err := vault.Open(cfg, nil)
	if err != nil {
		fmt.Fprintf(w, "  Store:        FAILED (%v) ✗\n", err)
		allOK = false
	} else {
		defer v.Close()

		listing, err := v.ListVersions(0)
		switch {
		case err != nil:
			fmt.Fprintf(w, "  Versions:     FAILED (%v) ✗\n", err)
			allOK = false
		case len(listing.Skipped) > 0:
			fmt.Fprintf(w, "  Versions:     %d readable, %d with bad metadata ✗\n", len(listing.Versions), len(listing.Skipped))
			allOK = false
		default:
			fmt.Fprintf(w, "  Versions:     %d in %s ✓\n", len(listing.Versions), v.Store().VersionsDir())
		}

		err = v.WithLock(func(*vault.Vault) error { return nil })
		if err != nil {
			fmt.Fprintf(w, "  Lock:         FAILED (%v) ✗\n", err)
			allOK = false
		} else {
			fmt.Fprintln(w, "  Lock:         acquired ✓")
		}

		if _, err := v.History(journal.Filter{Limit: 1}); err != nil {
			fmt.Fprintf(w, "  Journal:      FAILED (%v) ✗\n", err)
			allOK = false
		} else {
			fmt.Fprintf(w, "  Journal:      %s ✓\n", cfg.Journal.Driver)
		}
	}

	// 6. Hooks
	if cfg.Hooks.Enabled {
		fmt.Fprintf(w, "  Hooks:        %d configured ✓\n", len(cfg.Hooks.Hooks))
	} else {
		fmt.Fprintln(w, "  Hooks:        disabled")
	}

	fmt.Fprintln(w)
	if allOK {
		fmt.Fprintf(w, "All checks passed! (%s)\n", time.Now().Format(time.RFC3339))
	} else {
		fmt.Fprintln(w, "Some checks failed. See above for details.")
	}
	return nil
}
