package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(migrateCmd, seedStandardsCmd, checkBalancesCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply embedded database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer rt.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var seedStandardsCmd = &cobra.Command{
	Use:   "seed-standards",
	Short: "Replace the point standard catalog with the default one",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer rt.Close()

		n, err := rt.svc.ResetStandards(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "standards seeded: %d\n", n)
		return nil
	},
}

var checkBalancesCmd = &cobra.Command{
	Use:   "check-balances",
	Short: "Compare cached balances with approved history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer rt.Close()

		mm, err := rt.svc.CheckBalances(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, m := range mm {
			fmt.Fprintf(out, "%d\t%s\tcached=%d\thistory=%d\n", m.StudentID, m.Name, m.Cached, m.Computed)
		}
		if len(mm) > 0 {
			rt.log.Base.Warn("balances out of sync", zap.Int("students", len(mm)))
			return fmt.Errorf("%d balances out of sync", len(mm))
		}
		fmt.Fprintln(out, "balances consistent")
		return nil
	},
}
