package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes, mirroring the teacher's root.go scheme.
const (
	ExitSuccess          = 0
	ExitGenericError     = 1
	ExitConfigInvalid    = 2
	ExitRootInaccessible = 3
	ExitBindFailure      = 4
)

// GlobalFlags holds flags shared across all commands.
type GlobalFlags struct {
	Dir            string
	ConfigPath     string
	StateDir       string
	JSON           bool
	NonInteractive bool
	Quiet          bool
}

var globalFlags GlobalFlags

var rootCmd = &cobra.Command{
	Use:   "agentgate",
	Short: "Payment-gated AI inference and tool-execution gateway",
	Long:  "agentgate fronts a dynamic multi-source model registry, a multimodal inference router, and an MCP tool runtime behind an x402 payment gate.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.Dir, "dir", ".", "working directory (config/state root)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "agentgate.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&globalFlags.StateDir, "state-dir", "", "state directory (default: <dir>/.agentgate)")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.JSON, "json", false, "emit NDJSON events for automation/logging")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.NonInteractive, "non-interactive", false, "disable prompts; fail fast with actionable instructions when config missing")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Quiet, "quiet", false, "reduce output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and returns an error; exit code is set by RunE.
func Execute() error {
	return rootCmd.Execute()
}

func exitWith(code int, msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}
