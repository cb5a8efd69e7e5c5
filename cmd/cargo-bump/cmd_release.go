package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dephub/cargo-bump/internal/logger"
	"github.com/dephub/cargo-bump/internal/ui"
	"github.com/dephub/cargo-bump/release"
)

type releaseView struct {
	Plan          planView         `json:"plan"`
	Changes       []release.Change `json:"changes"`
	DryRun        bool             `json:"dry_run"`
	CommitMessage string           `json:"commit_message"`
	Clipboard     bool             `json:"clipboard"`
}

func newReleaseCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release <package> <version>",
		Short: "Bump a member and update the requirements of its dependents",
		Long: `Write <version> to the member manifest and replace the version requirement of
every dependent the bump breaks. Dependents whose requirement still matches, or did
not match the old version, are left alone.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd, args, d)
		},
	}
	cmd.Flags().StringSlice("dependents", nil, "Only update these dependents (default: all)")
	cmd.Flags().Bool("dry-run", false, "Show the changes without writing them")
	return cmd
}

func runRelease(cmd *cobra.Command, args []string, d deps) error {
	only, _ := cmd.Flags().GetStringSlice("dependents")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	plan, err := buildPlan(s.ws, args[0], args[1])
	if err != nil {
		return err
	}
	if len(only) > 0 {
		if plan, err = plan.Only(only...); err != nil {
			return WrapExitError(ExitCommandError, "selecting dependents", err)
		}
	}
	pv, err := newPlanView(plan)
	if err != nil {
		return WrapExitError(ExitFailure, "formatting requirement", err)
	}

	changes, err := s.ws.Apply(cmd.Context(), plan, dryRun)
	if err != nil {
		return WrapExitError(ExitFailure, "applying release", err)
	}

	msg, err := s.cfg.RenderCommitMessage(plan.Member.Name, plan.To.String())
	if err != nil {
		return WrapExitError(ExitFailure, "rendering commit message", err)
	}
	view := releaseView{Plan: pv, Changes: changes, DryRun: dryRun, CommitMessage: msg}
	if cb := clipboardFor(cmd, s.cfg, d.clipboard); cb != nil && !dryRun {
		if err := cb.WriteAll(msg); err != nil {
			logger.L().Warn("clipboard.failed", "err", err)
			s.out.Note("warning: could not access the clipboard: %v", err)
		} else {
			view.Clipboard = true
		}
	}

	return s.out.Success(view, func(w io.Writer) error {
		reportUpdates(w, s.out.GetErrWriter(), plan)
		if dryRun {
			s.out.Note("dry run, nothing was written")
		}
		tbl := ui.NewTable(w, "MANIFEST", "FIELD", "FROM", "TO")
		for _, c := range changes {
			tbl.Row(c.ManifestPath, c.Field, c.From, c.To)
		}
		if err := tbl.Flush(); err != nil {
			return err
		}
		if view.Clipboard {
			_, err := fmt.Fprintln(w, "Placing recommended commit message on clipboard")
			return err
		}
		_, err := fmt.Fprintf(w, "Recommended commit message: %s\n", msg)
		return err
	})
}
