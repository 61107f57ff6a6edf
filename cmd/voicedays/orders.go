package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect grocery orders",
	}
	cmd.AddCommand(ordersListCmd())
	cmd.AddCommand(ordersRefreshCmd())
	return cmd
}

func ordersListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent orders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			orders, err := a.Deps.Orders.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(orders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No orders yet.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ORDER\tPLACED\tSTATUS\tITEMS\tTOTAL")
			for _, o := range orders {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f %s\n",
					o.ID, o.PlacedAt.Format("2006-01-02 15:04"), o.Status, len(o.Items), o.Total, o.Currency)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntP("limit", "n", 5, "Maximum orders to show")
	return cmd
}

func ordersRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Advance every order's simulated delivery status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			changes, err := a.Deps.Orders.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			for _, ev := range changes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", ev.OrderID, ev.Status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d transitions applied.\n", len(changes))
			return nil
		},
	}
}
