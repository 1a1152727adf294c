package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"wraptrack/internal/access"
	"wraptrack/internal/store"
)

func newChecklistCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "PIN-protected manual checkpoint edits",
	}

	cmd.AddCommand(newChecklistDoneCommand(ctx))
	cmd.AddCommand(newChecklistUndoneCommand(ctx))
	cmd.AddCommand(newChecklistClearCommand(ctx))
	return cmd
}

// unlockSession builds a session from config and unlocks it with the PIN
// from the flag, prompting on a terminal when the flag is empty.
func unlockSession(ctx *commandContext, cmd *cobra.Command, pin string) (*access.Session, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}

	session := access.NewSession(cfg.Access, nil)
	session.BeginPrompt()

	entered := strings.TrimSpace(pin)
	if entered == "" {
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			return nil, fmt.Errorf("a --pin is required")
		}
		fmt.Fprint(cmd.OutOrStdout(), "PIN: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read PIN: %w", err)
		}
		entered = strings.TrimSpace(line)
	}

	if !session.SubmitPIN(entered) {
		return nil, fmt.Errorf("incorrect PIN")
	}
	return session, nil
}

func newChecklistDoneCommand(ctx *commandContext) *cobra.Command {
	var (
		pin   string
		actor string
		note  string
	)

	cmd := &cobra.Command{
		Use:   "done <job-id> <checkpoint>",
		Short: "Mark a checkpoint manually complete",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				j, err := mustGetJob(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				session, err := unlockSession(ctx, cmd, pin)
				if err != nil {
					return err
				}

				editor := access.NewEditor(session, st)
				applied, err := editor.SetDone(cmd.Context(), j, args[1], actor, note)
				if err != nil {
					return err
				}
				if !applied {
					return fmt.Errorf("edit mode is locked")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint %s marked done\n", args[1])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "Elevated access PIN")
	cmd.Flags().StringVar(&actor, "actor", "", "Who is making the edit")
	cmd.Flags().StringVar(&note, "note", "", "Edit note")
	return cmd
}

func newChecklistUndoneCommand(ctx *commandContext) *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "undone <job-id> <checkpoint>",
		Short: "Explicitly mark a checkpoint not done, overriding the stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				j, err := mustGetJob(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				session, err := unlockSession(ctx, cmd, pin)
				if err != nil {
					return err
				}

				editor := access.NewEditor(session, st)
				applied, err := editor.SetUndone(cmd.Context(), j, args[1])
				if err != nil {
					return err
				}
				if !applied {
					return fmt.Errorf("edit mode is locked")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint %s marked not done\n", args[1])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "Elevated access PIN")
	return cmd
}

func newChecklistClearCommand(ctx *commandContext) *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "clear <job-id> <checkpoint>",
		Short: "Remove a manual override so the stage decides again",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				j, err := mustGetJob(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				session, err := unlockSession(ctx, cmd, pin)
				if err != nil {
					return err
				}

				editor := access.NewEditor(session, st)
				applied, err := editor.Clear(cmd.Context(), j, args[1])
				if err != nil {
					return err
				}
				if !applied {
					return fmt.Errorf("edit mode is locked")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Override on %s cleared\n", args[1])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "Elevated access PIN")
	return cmd
}
