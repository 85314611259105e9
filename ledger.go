package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"twitterbot/config"
	"twitterbot/db"
	"twitterbot/utils"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect or repair the record of tweeted messages",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tweeted messages, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(func(ctx context.Context, ledger *db.Ledger) error {
			entries, err := ledger.ListPosted(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				when := "-"
				if !e.PostedAt.IsZero() {
					when = e.PostedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(out, "%s\t%s\n", e.MessageID, when)
			}
			return nil
		})
	},
}

var ledgerCheckCmd = &cobra.Command{
	Use:   "check <message-id|message-link>",
	Short: "Report whether a message has been tweeted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := utils.ParseMessageRef(args[0])
		if err != nil {
			return err
		}
		return withLedger(func(ctx context.Context, ledger *db.Ledger) error {
			posted, err := ledger.HasPosted(ctx, ref.MessageID)
			if err != nil {
				return err
			}
			if posted {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: posted\n", ref.MessageID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: not posted\n", ref.MessageID)
			}
			return nil
		})
	},
}

var ledgerMarkCmd = &cobra.Command{
	Use:   "mark <message-id|message-link>",
	Short: "Record a message as tweeted without posting it",
	Long: `Record a message as tweeted without posting it. Use this when the bot
reports that a tweet went out but could not be recorded, so later reactions
don't post it again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := utils.ParseMessageRef(args[0])
		if err != nil {
			return err
		}
		return withLedger(func(ctx context.Context, ledger *db.Ledger) error {
			if err := ledger.RecordPosted(ctx, ref.MessageID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: marked as posted\n", ref.MessageID)
			return nil
		})
	},
}

func init() {
	ledgerCmd.AddCommand(ledgerListCmd, ledgerCheckCmd, ledgerMarkCmd)
}

// withLedger opens the configured ledger for a single command. Only
// DATABASE_PATH matters here, so the Discord and Twitter keys are not required.
func withLedger(fn func(ctx context.Context, ledger *db.Ledger) error) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return err
	}

	ledger, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	return fn(context.Background(), ledger)
}
