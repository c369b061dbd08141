package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/compose-market/agentgate/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or update agentgate.yaml with defaults",
	RunE:  runConfigInit,
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print effective config as YAML (secrets redacted)",
	RunE:  runConfigPrint,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPrintCmd)
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	rootDir, err := filepath.Abs(globalFlags.Dir)
	if err != nil {
		return err
	}
	configPath := globalFlags.ConfigPath
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(rootDir, configPath)
	}

	if err := os.WriteFile(configPath, []byte(config.DefaultYAML), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Println("Wrote", configPath)

	if !globalFlags.NonInteractive && IsTTY() {
		fmt.Fprintln(os.Stderr, "Optional: enter your facilitator pay-to address now. Press Enter to skip and set X402_PAY_TO later.")
		payTo, err := ReadSecret("Pay-to address: ")
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if payTo != "" {
			fmt.Fprintln(os.Stderr, "Received. Set it in your environment before running 'agentgate serve':")
			fmt.Fprintln(os.Stderr, "  export X402_PAY_TO="+payTo)
		}
	} else {
		fmt.Println("Edit the file or set provider/payment env vars (HUGGING_FACE_TOKEN, X402_FACILITATOR_URL, X402_PAY_TO, ...).")
	}
	return nil
}

func runConfigPrint(_ *cobra.Command, _ []string) error {
	rootDir, err := filepath.Abs(globalFlags.Dir)
	if err != nil {
		return err
	}
	stateDir := globalFlags.StateDir
	if stateDir == "" {
		stateDir = filepath.Join(rootDir, ".agentgate")
	}
	stateDir, err = filepath.Abs(stateDir)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.Options{
		ConfigPath:     globalFlags.ConfigPath,
		RootDir:        rootDir,
		StateDir:       stateDir,
		NonInteractive: true,
		SkipValidate:   true,
	})
	if err != nil {
		exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
	}

	snap := config.SnapshotConfig(cfg)
	data, err := yaml.Marshal(snap)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
