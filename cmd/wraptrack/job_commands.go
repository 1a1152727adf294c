package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wraptrack/internal/derive"
	"wraptrack/internal/job"
	"wraptrack/internal/store"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var customer string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a new job at sales intake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				j, err := st.CreateJob(cmd.Context(), args[0], customer)
				if err != nil {
					return fmt.Errorf("create job: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created job %s (%s)\n", j.ID, j.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&customer, "customer", "", "Customer name")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs in the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				var (
					jobs []*job.Job
					err  error
				)
				if all {
					jobs, err = st.ListJobs(cmd.Context())
				} else {
					jobs, err = st.ListJobs(cmd.Context(), job.StatusActive)
				}
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
					return nil
				}

				rows := make([][]string, 0, len(jobs))
				for _, j := range jobs {
					snap := derive.Derive(j.Stage, j.Checklist)
					rows = append(rows, []string{
						shortID(j.ID),
						j.Title,
						j.Customer,
						j.Stage.Label(),
						strconv.Itoa(snap.CompletionPercent()) + "%",
						string(j.Status),
					})
				}
				headers := []string{"ID", "Title", "Customer", "Stage", "Done", "Status"}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, 5))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include closed jobs")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <job-id>",
		Short: "Delete a job and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				j, err := mustGetJob(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				removed, err := st.Remove(cmd.Context(), j.ID)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("no job with id %s", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed job %s\n", j.ID)
				return nil
			})
		},
	}
}
