package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wraptrack/internal/gate"
	"wraptrack/internal/store"
	"wraptrack/internal/transition"
)

// gateFlags binds the sign-off form fields shared by advance and close.
type gateFlags struct {
	customerName       string
	salePrice          float64
	linearFeetPrinted  float64
	materialWidthIn    float64
	rollsUsed          float64
	materialType       string
	installHours       float64
	installerSignature string
	timerSeconds       int64
	qcResult           string
	finalLinearFt      float64
	reprintCost        float64
	adjProfit          float64
	adjGPM             float64
	finalApproved      bool
}

func (g *gateFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&g.customerName, "customer-name", "", "Customer name (sales intake)")
	flags.Float64Var(&g.salePrice, "sale-price", 0, "Sale price (sales intake)")
	flags.Float64Var(&g.linearFeetPrinted, "linear-feet", 0, "Linear feet printed (production)")
	flags.Float64Var(&g.materialWidthIn, "material-width", 0, "Material width in inches (production)")
	flags.Float64Var(&g.rollsUsed, "rolls-used", 0, "Rolls used (production)")
	flags.StringVar(&g.materialType, "material-type", "", "Material type (production)")
	flags.Float64Var(&g.installHours, "install-hours", 0, "Install hours (install)")
	flags.StringVar(&g.installerSignature, "installer-signature", "", "Installer signature (install)")
	flags.Int64Var(&g.timerSeconds, "timer-seconds", 0, "Recorded install timer seconds (install)")
	flags.StringVar(&g.qcResult, "qc-result", "", "QC result (QC review): "+strings.Join(gate.QCResults(), ", "))
	flags.Float64Var(&g.finalLinearFt, "final-linear-ft", 0, "Final linear feet (QC review)")
	flags.Float64Var(&g.reprintCost, "reprint-cost", 0, "Reprint cost (QC review)")
	flags.Float64Var(&g.adjProfit, "adj-profit", 0, "Adjusted profit (sales approval)")
	flags.Float64Var(&g.adjGPM, "adj-gpm", 0, "Adjusted gross profit margin (sales approval)")
	flags.BoolVar(&g.finalApproved, "final-approved", false, "Final sales approval (sales approval)")
}

func (g *gateFlags) fields() gate.Fields {
	return gate.Fields{
		CustomerName:       g.customerName,
		SalePrice:          g.salePrice,
		LinearFeetPrinted:  g.linearFeetPrinted,
		MaterialWidthIn:    g.materialWidthIn,
		RollsUsed:          g.rollsUsed,
		MaterialType:       g.materialType,
		InstallHours:       g.installHours,
		InstallerSignature: g.installerSignature,
		TimerSeconds:       g.timerSeconds,
		QCResult:           g.qcResult,
		FinalLinearFt:      g.finalLinearFt,
		ReprintCost:        g.reprintCost,
		AdjProfit:          g.adjProfit,
		AdjGPM:             g.adjGPM,
		FinalApproved:      g.finalApproved,
	}
}

func newAdvanceCommand(ctx *commandContext) *cobra.Command {
	var (
		flags gateFlags
		actor string
		notes string
	)

	cmd := &cobra.Command{
		Use:   "advance <job-id>",
		Short: "Sign a job off its current stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				j, err := mustGetJob(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}

				engine := ctx.newEngine(st)
				result, err := engine.Advance(cmd.Context(), j, flags.fields(), actor, notes)
				if err != nil {
					return err
				}
				if !result.Allowed {
					return fmt.Errorf("sign-off blocked: %s", result.Reason)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s moved to %s\n", shortID(j.ID), j.Stage.Label())
				// Drain the milestone notification before the process exits.
				engine.Flush()
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&actor, "actor", "", "Who is signing off")
	cmd.Flags().StringVar(&notes, "notes", "", "Sign-off notes")
	return cmd
}

func newCloseCommand(ctx *commandContext) *cobra.Command {
	var (
		flags gateFlags
		actor string
		notes string
	)

	cmd := &cobra.Command{
		Use:   "close <job-id>",
		Short: "Close a job from the final approval stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				j, err := mustGetJob(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}

				engine := ctx.newEngine(st)
				result, err := engine.Close(cmd.Context(), j, flags.fields(), actor, notes)
				if err != nil {
					return err
				}
				if !result.Allowed {
					return fmt.Errorf("close blocked: %s", result.Reason)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s closed\n", shortID(j.ID))
				engine.Flush()
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&actor, "actor", "", "Who is approving the close")
	cmd.Flags().StringVar(&notes, "notes", "", "Close notes")
	return cmd
}

func newSendBackCommand(ctx *commandContext) *cobra.Command {
	var (
		reason string
		notes  string
		actor  string
	)

	cmd := &cobra.Command{
		Use:   "send-back <job-id>",
		Short: "Send a job back to the previous stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				j, err := mustGetJob(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}

				if strings.TrimSpace(reason) == "" {
					reasons := transition.SendBackReasons(j.Stage)
					return fmt.Errorf("a --reason is required; valid reasons at %s: %s",
						j.Stage.Label(), strings.Join(reasons, "; "))
				}

				engine := ctx.newEngine(st)
				if err := engine.SendBack(cmd.Context(), j, reason, notes, actor); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s sent back to %s\n", shortID(j.ID), j.Stage.Label())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Send-back reason (must match the stage's reason list)")
	cmd.Flags().StringVar(&notes, "notes", "", "Additional context")
	cmd.Flags().StringVar(&actor, "actor", "", "Who is sending the job back")
	return cmd
}
