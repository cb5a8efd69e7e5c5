package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dephub/cargo-bump/internal/config"
	"github.com/dephub/cargo-bump/internal/logger"
	"github.com/dephub/cargo-bump/providers/policy"
	"github.com/dephub/cargo-bump/providers/versioneer"
	"github.com/dephub/cargo-bump/release"
)

func runInteractive(cmd *cobra.Command, d deps) error {
	if format, _ := cmd.Flags().GetString("format"); format == "json" {
		return NewExitError(ExitCommandError, "the interactive mode has no json output, use the plan and release subcommands")
	}
	if !d.isTTY() {
		return NewExitError(ExitCommandError, "the interactive mode needs a terminal, use the plan and release subcommands")
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	f := &flow{
		ws:        s.ws,
		cfg:       s.cfg,
		prompter:  d.prompter,
		clipboard: clipboardFor(cmd, s.cfg, d.clipboard),
		out:       cmd.OutOrStdout(),
		errOut:    cmd.ErrOrStderr(),
	}
	if err := f.run(cmd.Context()); err != nil {
		if errors.Is(err, errAborted) {
			return WrapExitError(ExitFailure, "release aborted", err)
		}
		return err
	}
	return nil
}

// clipboardFor returns nil when the commit message must be printed instead.
func clipboardFor(cmd *cobra.Command, cfg config.Config, cb Clipboard) Clipboard {
	if off, _ := cmd.Flags().GetBool("no-clipboard"); off || !cfg.Clipboard {
		return nil
	}
	return cb
}

// flow walks the user through the release of one member.
type flow struct {
	ws        *release.Workspace
	cfg       config.Config
	prompter  Prompter
	clipboard Clipboard
	out       io.Writer
	errOut    io.Writer
}

func (f *flow) run(ctx context.Context) error {
	labels := make([]string, len(f.ws.Members))
	for i, m := range f.ws.Members {
		labels[i] = m.Label()
	}
	idx, err := f.prompter.Select("What package do you want to bump?", labels)
	if err != nil {
		return err
	}
	m := f.ws.Members[idx]
	fmt.Fprintf(f.out, "You chose: %s\n", m.Name)

	section, found, err := f.ws.Unreleased(ctx, m)
	if err != nil {
		return WrapExitError(ExitFailure, "reading changelog", err)
	}
	if found {
		fmt.Fprintf(f.out, "Changes since %s\n%s\n", m.Version, strings.TrimRight(section, "\n"))
	}

	input, err := f.prompter.Input("New version:", m.Version.String(), versionValidator(m.Version))
	if err != nil {
		return err
	}
	next, err := versioneer.ParseVersion(strings.TrimSpace(input))
	if err != nil {
		return WrapExitError(ExitCommandError, "new version", err)
	}

	plan, err := f.ws.NewPlan(m.Name, next)
	if err != nil {
		return wrapReleaseError("planning release", err)
	}

	if len(plan.Updates) > 0 {
		fmt.Fprintf(f.out, "There are %d workspace members that depend on %s.\n", m.DependentMembers(), m.Name)
		items := make([]string, len(plan.Updates))
		for i, u := range plan.Updates {
			items[i] = u.Dependent.Label()
		}
		chosen, err := f.prompter.MultiSelect(
			fmt.Sprintf("Select the workspace members whose version requirement should be updated to %s:", next),
			items,
		)
		if err != nil {
			return err
		}
		plan = selectUpdates(plan, chosen)
	}

	reportUpdates(f.out, f.errOut, plan)

	if _, err := f.ws.Apply(ctx, plan, false); err != nil {
		return WrapExitError(ExitFailure, "applying release", err)
	}

	return f.commitMessage(m.Name, next)
}

func (f *flow) commitMessage(name string, version versioneer.Version) error {
	msg, err := f.cfg.RenderCommitMessage(name, version.String())
	if err != nil {
		return WrapExitError(ExitFailure, "rendering commit message", err)
	}

	if f.clipboard != nil {
		fmt.Fprintln(f.out, "Placing recommended commit message on clipboard")
		err := f.clipboard.WriteAll(msg)
		if err == nil {
			return nil
		}
		logger.L().Warn("clipboard.failed", "err", err)
		fmt.Fprintf(f.errOut, "warning: could not access the clipboard: %v\n", err)
	}
	fmt.Fprintf(f.out, "Recommended commit message: %s\n", msg)
	return nil
}

// versionValidator checks the new version input against the current version.
func versionValidator(cur versioneer.Version) func(string) error {
	return func(input string) error {
		v, err := versioneer.ParseVersion(strings.TrimSpace(input))
		if err != nil {
			return fmt.Errorf("%s is not a valid SemVer string", input)
		}
		if err := release.ValidateVersion(cur, v); err != nil {
			if errors.Is(err, release.ErrVersionNotHigher) {
				return errors.New("New version must be higher than current version")
			}
			return err
		}
		return nil
	}
}

// selectUpdates restricts the plan to the updates at the given indices.
func selectUpdates(plan *release.Plan, indices []int) *release.Plan {
	res := *plan
	res.Updates = make([]release.Update, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(plan.Updates) {
			res.Updates = append(res.Updates, plan.Updates[i])
		}
	}
	return &res
}

// reportUpdates prints the outcome of every update, skipped ones on errOut.
func reportUpdates(out, errOut io.Writer, plan *release.Plan) {
	name := plan.Member.Name
	for _, u := range plan.Updates {
		dep := u.Dependent.Member.Name
		switch u.Outcome.Kind {
		case policy.RequirementStale:
			fmt.Fprintf(errOut, "warning: %s requires %s %s which does not match %s, leaving it alone\n", dep, name, u.Current, plan.From)
		case policy.RequirementStillValid:
			fmt.Fprintf(errOut, "%s requirement %s on %s still matches %s\n", dep, u.Current, name, plan.To)
		case policy.RequirementNeedsUpdate:
			fmt.Fprintf(out, "in %s manifest, updating %s from %s => %s\n", dep, name, u.Current, u.Outcome.Requirement)
		}
	}
}
