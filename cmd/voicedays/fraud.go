package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func fraudCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fraud",
		Short: "Inspect and reseed fraud alert cases",
	}
	cmd.AddCommand(fraudListCmd())
	cmd.AddCommand(fraudResetCmd())
	cmd.AddCommand(fraudCallCmd())
	return cmd
}

func fraudListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every fraud case with its status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			cases, err := a.Deps.Fraud.All(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tCARD\tMERCHANT\tAMOUNT\tSTATUS")
			for _, c := range cases {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					c.Username, c.CardLast4, c.TransactionMerchant, c.Amount, c.Status)
			}
			return w.Flush()
		},
	}
}

func fraudResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace every case with the sample data",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Deps.Fraud.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Fraud cases reset to the sample data.")
			return nil
		},
	}
}

func fraudCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <username>",
		Short: "Phone the customer behind an open case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			c, ok, err := a.Deps.Fraud.CaseForUsername(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no open case for %q", args[0])
			}
			to, _ := cmd.Flags().GetString("to")
			if strings.TrimSpace(to) == "" {
				to = c.Phone
			}
			if strings.TrimSpace(to) == "" {
				return fmt.Errorf("case for %s has no phone number; pass --to", c.Username)
			}
			voiceURL, _ := cmd.Flags().GetString("voice-url")
			sid, err := a.NewDialer().Dial(cmd.Context(), to, voiceURL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "call_sid: %s\n", sid)
			return nil
		},
	}
	cmd.Flags().String("to", "", "Number to call, overrides the case phone")
	cmd.Flags().String("voice-url", "", "Voice webhook URL, defaults to twilio.public_url + voice_path")
	return cmd
}
