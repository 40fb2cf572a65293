package auth

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/internal/config"
	"github.com/spf13/cobra"
)

var (
	shellFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the session as shell environment variables",
	Long: `Prints PORTAL_API_URL and PORTAL_ACCESS_TOKEN for scripts that call the API
directly (for example with curl -H "Authorization: Bearer $PORTAL_ACCESS_TOKEN").

Supported shells:
  - posix (bash, zsh, sh) - default
  - fish
  - powershell

Usage:
  # POSIX shells (bash/zsh/sh)
  eval $(portalctl auth export)

  # Fish shell
  eval (portalctl auth export --shell fish)

  # PowerShell
  portalctl auth export --shell powershell | Invoke-Expression

The access token is short-lived and is not refreshed once exported; rerun the
command (or 'portalctl auth whoami') when it expires.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&shellFormat, "shell", "", "Shell format: posix, fish, powershell (auto-detected if not specified)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := config.MustFromContext(cmd.Context())
	store, err := cfg.ClientProvider.Store()
	if err != nil {
		return err
	}

	creds, err := store.Credentials(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load session: %w\n\nPlease run 'portalctl auth login' first", err)
	}

	format := shellFormat
	if format == "" {
		format = detectShell(os.Getenv("SHELL"))
	}

	if isTerminal(os.Stdout) {
		fmt.Fprintln(os.Stderr, "# Run this command to configure your shell:")
		fmt.Fprintf(os.Stderr, "#   %s\n\n", evalHint(format))
	}
	return writeExports(os.Stdout, format, map[string]string{
		"PORTAL_API_URL":      cfg.ServerURL,
		"PORTAL_ACCESS_TOKEN": creds.AccessToken,
	})
}

// detectShell maps a SHELL path to an export format.
func detectShell(shell string) string {
	switch filepath.Base(shell) {
	case "fish":
		return "fish"
	case "pwsh", "powershell":
		return "powershell"
	default:
		// bash, zsh, sh and unknown shells
		return "posix"
	}
}

func evalHint(format string) string {
	switch normalizeShell(format) {
	case "fish":
		return "eval (portalctl auth export --shell fish)"
	case "powershell":
		return "portalctl auth export --shell powershell | Invoke-Expression"
	default:
		return "eval $(portalctl auth export)"
	}
}

func normalizeShell(format string) string {
	switch strings.ToLower(format) {
	case "posix", "bash", "zsh", "sh":
		return "posix"
	case "fish":
		return "fish"
	case "powershell", "pwsh", "ps1":
		return "powershell"
	default:
		return ""
	}
}

// writeExports prints one assignment per variable in sorted order.
func writeExports(w io.Writer, format string, vars map[string]string) error {
	var line string
	switch normalizeShell(format) {
	case "posix":
		line = "export %s=%q\n"
	case "fish":
		line = "set -x %s %q\n"
	case "powershell":
		line = "$env:%s=%q\n"
	default:
		return fmt.Errorf("unsupported shell format: %s\n\nSupported formats: posix, fish, powershell", format)
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, line, name, vars[name])
	}
	return nil
}

// isTerminal checks if the given file is a terminal (TTY)
func isTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
