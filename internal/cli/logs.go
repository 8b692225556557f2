package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	logsFollow  bool
	logsLines   int
	logsVersion string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the promptvault log file",
	Long: `View the log file configured as logging.file.

Examples:
  promptvault logs                        # Last 50 lines
  promptvault logs --version baseline     # Lines mentioning a version
  promptvault logs --follow               # Follow log output`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "number of lines to show")
	logsCmd.Flags().StringVar(&logsVersion, "version", "", "only lines mentioning this version id")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Logging.File == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No log file configured. Set logging.file in promptvault.yaml.")
		return nil
	}
	logFile := cfg.Path(cfg.Logging.File)

	if logsFollow {
		return followLogs(cmd.OutOrStdout(), logFile)
	}

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "No logs found.")
		return nil
	}
	content, err := readLastLines(logFile, logsLines, logsVersion)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", logFile, err)
	}
	if content != "" {
		fmt.Fprintln(cmd.OutOrStdout(), content)
	}
	return nil
}

func followLogs(w io.Writer, logFile string) error {
	fmt.Fprintln(w, "Following logs... (Ctrl+C to stop)")

	file, err := os.Open(logFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		fmt.Fprintln(w, "Waiting for logs...")
		for {
			time.Sleep(time.Second)
			if file, err = os.Open(logFile); err == nil {
				break
			}
		}
	}
	defer file.Close()

	// Seek to end
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if logsVersion != "" && !strings.Contains(line, logsVersion) {
			continue
		}
		fmt.Fprint(w, line)
	}
}

// readLastLines returns the last n lines of path, keeping only lines that
// contain filter when it is set.
func readLastLines(path string, n int, filter string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if filter != "" && !strings.Contains(line, filter) {
			continue
		}
		lines = append(lines, line)
		if len(lines) > n {
			lines = lines[1:]
		}
	}

	return strings.Join(lines, "\n"), scanner.Err()
}
