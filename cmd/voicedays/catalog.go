package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Query the grocery catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "find <query>",
		Short: "Resolve a spoken item name the way the grocery agent does",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			query := strings.Join(args, " ")
			m, ok := a.Deps.GroceryCatalog.Find(query)
			if !ok {
				return fmt.Errorf("no match for %q", query)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\t%s\t%.2f %s\t(%s)\n", m.Item.ID, m.Item.Name, m.Item.Price, m.Item.Currency, m.Tier)
			if m.Message != "" {
				fmt.Fprintln(out, m.Message)
			}
			return nil
		},
	})
	return cmd
}
