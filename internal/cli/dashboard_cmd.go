package cli

import (
	"github.com/spf13/cobra"

	"github.com/compose-market/agentgate/internal/dashboard"
	"github.com/compose-market/agentgate/internal/dashboard/prefs"
)

var dashboardAddrFlag string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Live TUI status view of a running gateway",
	RunE:  runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardAddrFlag, "addr", "", "gateway base URL (overrides saved preference)")
}

func runDashboard(_ *cobra.Command, _ []string) error {
	p, err := prefs.Load()
	if err != nil {
		return err
	}
	if dashboardAddrFlag != "" {
		p.GatewayAddr = dashboardAddrFlag
	}
	return dashboard.Run(p)
}
