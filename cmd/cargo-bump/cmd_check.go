package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dephub/cargo-bump/providers/policy"
	"github.com/dephub/cargo-bump/providers/versioneer"
)

type checkView struct {
	Requirement    string             `json:"requirement"`
	From           string             `json:"from"`
	To             string             `json:"to"`
	Outcome        policy.OutcomeKind `json:"outcome"`
	NewRequirement string             `json:"new_requirement,omitempty"`
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <requirement> <old> <new>",
		Short: "Check whether a requirement survives a version bump",
		Long: `Reconcile a dependent's version requirement with the release of <new> after <old>.

Prints one of:
  stale         the requirement did not match <old>, it is left alone
  still-valid   the requirement needs no edit
  needs-update  the requirement must be replaced, the replacement is printed too`,
		Args: exactArgs(3),
		RunE: runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	req, err := versioneer.ParseRequirement(args[0])
	if err != nil {
		return WrapExitError(ExitCommandError, "requirement", err)
	}
	cur, err := parseVersionArg("old", args[1])
	if err != nil {
		return err
	}
	next, err := parseVersionArg("new", args[2])
	if err != nil {
		return err
	}
	if err := policy.CheckBump(cur, next); err != nil {
		return WrapExitError(ExitCommandError, "cannot reconcile", err)
	}

	outcome := policy.Reconcile(req, cur, next)
	view := checkView{Requirement: req.String(), From: cur.String(), To: next.String(), Outcome: outcome.Kind}
	if outcome.Kind == policy.RequirementNeedsUpdate {
		if view.NewRequirement, err = versioneer.FormatRequirement(outcome.Requirement); err != nil {
			return WrapExitError(ExitFailure, "formatting requirement", err)
		}
	}

	return newFormatter(cmd).Success(view, func(w io.Writer) error {
		if view.NewRequirement != "" {
			_, err := fmt.Fprintf(w, "%s %s\n", view.Outcome, view.NewRequirement)
			return err
		}
		_, err := fmt.Fprintln(w, view.Outcome)
		return err
	})
}
