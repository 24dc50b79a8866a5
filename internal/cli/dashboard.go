package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jonuar/Donacrypto/internal/core/domain"
)

type dashboardOutput struct {
	domain.DashboardState
	CoversRequired bool              `json:"covers_required"`
	Report         domain.InitReport `json:"report"`
}

func newDashboardCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Load the creator dashboard and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := restore(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if !a.Session.IsCreator() {
				return errors.New("the dashboard requires a creator account")
			}

			report := a.Dashboard.InitializeDashboard(cmd.Context())
			state := a.Dashboard.Snapshot()
			return printJSON(cmd.OutOrStdout(), dashboardOutput{
				DashboardState: state,
				CoversRequired: state.Wallets.Covers(a.Config.Dashboard.RequiredCurrencies),
				Report:         report,
			})
		},
	}
}
