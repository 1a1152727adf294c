package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"wraptrack/internal/catalog"
	"wraptrack/internal/derive"
	"wraptrack/internal/store"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Display a job's derived checklist and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				j, err := mustGetJob(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				snap := derive.Derive(j.Stage, j.Checklist)

				fmt.Fprintf(out, "%s  (%s)\n", j.Title, j.ID)
				if j.Customer != "" {
					fmt.Fprintf(out, "Customer: %s\n", j.Customer)
				}
				fmt.Fprintf(out, "Stage: %s    Status: %s    Complete: %d%%\n",
					j.Stage.Label(), j.Status, snap.CompletionPercent())
				if active, ok := snap.ActiveCheckpoint(); ok {
					fmt.Fprintf(out, "Next up: %s (%s)\n", active.Label, catalog.DepartmentLabel(active.Department))
				}
				fmt.Fprintln(out)

				for _, line := range renderSectionHeader("Departments", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, dept := range catalog.Departments() {
					status := snap.DepartmentStatus(dept)
					fmt.Fprintln(out, deptStatusLine(catalog.DepartmentLabel(dept), status, colorize))
				}
				fmt.Fprintln(out)

				for _, line := range renderSectionHeader("Checkpoints", colorize) {
					fmt.Fprintln(out, line)
				}
				rows := make([][]string, 0, catalog.Count())
				for _, cp := range catalog.Checkpoints() {
					state := snap.States[cp.ID]
					rows = append(rows, []string{
						checkpointMark(state),
						cp.Label,
						catalog.DepartmentLabel(cp.Department),
						checkpointDetail(state),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"", "Checkpoint", "Department", "Detail"}, rows))

				if len(j.SendBacks) > 0 {
					fmt.Fprintln(out)
					for _, line := range renderSectionHeader("Send-backs", colorize) {
						fmt.Fprintln(out, line)
					}
					sbRows := make([][]string, 0, len(j.SendBacks))
					for _, sb := range j.SendBacks {
						sbRows = append(sbRows, []string{
							sb.CreatedAt.Local().Format("2006-01-02 15:04"),
							sb.FromStage.Label() + " -> " + sb.ToStage.Label(),
							sb.Reason,
							sb.Actor,
						})
					}
					fmt.Fprintln(out, renderTable([]string{"When", "Movement", "Reason", "By"}, sbRows))
				}

				approvals, err := st.ListApprovals(cmd.Context(), j.ID)
				if err != nil {
					return err
				}
				if len(approvals) > 0 {
					fmt.Fprintln(out)
					for _, line := range renderSectionHeader("Sign-offs", colorize) {
						fmt.Fprintln(out, line)
					}
					apRows := make([][]string, 0, len(approvals))
					for _, ap := range approvals {
						apRows = append(apRows, []string{
							ap.CreatedAt.Local().Format("2006-01-02 15:04"),
							ap.Stage.Label(),
							ap.ApprovedBy,
							ap.Notes,
						})
					}
					fmt.Fprintln(out, renderTable([]string{"When", "Stage", "By", "Notes"}, apRows))
				}

				return nil
			})
		},
	}
}

func checkpointMark(state derive.CheckpointState) string {
	switch {
	case state.Done:
		return "x"
	case state.Blocked:
		return "!"
	default:
		return " "
	}
}

func checkpointDetail(state derive.CheckpointState) string {
	switch {
	case state.Blocked:
		return "blocked: contract not signed"
	case state.Done && !state.Auto:
		detail := "manual"
		if state.By != "" {
			detail += " by " + state.By
		}
		if state.At != nil {
			detail += " at " + state.At.Local().Format("2006-01-02 15:04")
		}
		return detail
	case state.Done:
		return "stage"
	default:
		return ""
	}
}

func deptStatusLine(label string, status derive.DeptStatus, colorize bool) string {
	base := fmt.Sprintf("  %-14s [%s]", label+":", strings.ToUpper(string(status)))
	if !colorize {
		return base
	}
	var color string
	switch status {
	case derive.DeptComplete:
		color = ansiGreen
	case derive.DeptBlocked:
		color = ansiRed
	case derive.DeptInProgress:
		color = ansiYellow
	case derive.DeptLocked:
		color = ansiRed
	case derive.DeptUpcoming:
		color = ansiBlue
	}
	if color == "" {
		return base
	}
	return color + base + ansiReset
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
