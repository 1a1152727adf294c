package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "wraptrack",
		Short: "Track wrap jobs through the shop pipeline",
		Long: `Wraptrack moves vehicle-wrap jobs through the shop pipeline:
sales intake, production, install, QC review, and sales approval.
Each stage is signed off against its checklist before the job advances,
and jobs can be sent back a stage with a recorded reason.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(
		newAddCommand(ctx),
		newListCommand(ctx),
		newShowCommand(ctx),
		newRemoveCommand(ctx),
		newAdvanceCommand(ctx),
		newCloseCommand(ctx),
		newSendBackCommand(ctx),
		newChecklistCommand(ctx),
		newConfigCommand(),
		newTestNotifyCommand(ctx),
	)

	return rootCmd
}
