package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/bindery/internal/app"
	"github.com/five82/bindery/internal/dispatch"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the download queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *app.Services) error {
				view := svc.Refresh(cmd.Context())
				if jsonOutput {
					if view.LastError != nil {
						return view.LastError
					}
					return writeJSON(cmd, view.Snapshot)
				}

				out := cmd.OutOrStdout()
				active := "-"
				if view.HasActiveCount {
					active = fmt.Sprintf("%d", view.ActiveCount)
				}
				fmt.Fprintf(out, "Active: %s\n\n", active)
				fmt.Fprint(out, renderView(view, shouldColorize(out)))
				return view.LastError
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the normalised snapshot as JSON")
	return cmd
}

func newActiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Print the number of active downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *app.Services) error {
				n, err := svc.Status.FetchActiveCount(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue ID",
		Short: "Queue a book for download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *app.Services) error {
				out := svc.Dispatcher.Enqueue(cmd.Context(), args[0])
				if !out.OK() {
					return out.Err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Queued for download")
				return printOutcome(cmd, svc, out)
			})
		},
	}
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a queued or downloading job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *app.Services) error {
				return printOutcome(cmd, svc, svc.Dispatcher.Cancel(cmd.Context(), args[0]))
			})
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove completed jobs from the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *app.Services) error {
				return printOutcome(cmd, svc, svc.Dispatcher.ClearCompleted(cmd.Context()))
			})
		},
	}
}

// printOutcome prints the refreshed queue that followed an action and
// returns the action's error, if any.
func printOutcome(cmd *cobra.Command, svc *app.Services, out dispatch.Outcome) error {
	if out.Refresh != nil {
		view := svc.Apply(out)
		w := cmd.OutOrStdout()
		fmt.Fprint(w, renderView(view, shouldColorize(w)))
	}
	if out.OK() {
		return nil
	}
	var dispatchErr *dispatch.DispatchError
	if errors.As(out.Err, &dispatchErr) {
		return fmt.Errorf("%s failed: %w", actionVerb(dispatchErr.Action), out.Err)
	}
	return out.Err
}

func actionVerb(action dispatch.Action) string {
	switch action {
	case dispatch.ActionEnqueue:
		return "queue download"
	case dispatch.ActionCancel:
		return "cancel download"
	case dispatch.ActionClearCompleted:
		return "clear completed"
	default:
		return string(action)
	}
}
