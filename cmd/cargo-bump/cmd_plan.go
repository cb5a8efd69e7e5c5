package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dephub/cargo-bump/internal/ui"
	"github.com/dephub/cargo-bump/providers/policy"
	"github.com/dephub/cargo-bump/providers/versioneer"
	"github.com/dephub/cargo-bump/release"
)

type planView struct {
	Package  string          `json:"package"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Severity policy.Severity `json:"severity"`
	Updates  []updateView    `json:"updates"`
}

type updateView struct {
	Dependent      string             `json:"dependent"`
	Table          string             `json:"table"`
	Key            string             `json:"key"`
	Inherited      bool               `json:"inherited,omitempty"`
	Requirement    string             `json:"requirement"`
	Outcome        policy.OutcomeKind `json:"outcome"`
	NewRequirement string             `json:"new_requirement,omitempty"`
}

func newPlanView(plan *release.Plan) (planView, error) {
	view := planView{
		Package:  plan.Member.Name,
		From:     plan.From.String(),
		To:       plan.To.String(),
		Severity: plan.Severity,
		Updates:  make([]updateView, 0, len(plan.Updates)),
	}
	for _, u := range plan.Updates {
		uv := updateView{
			Dependent:   u.Dependent.Member.Name,
			Table:       u.Dependent.Dependency.Table,
			Key:         u.Dependent.Dependency.Key,
			Inherited:   u.Dependent.Dependency.Inherited,
			Requirement: u.Current.String(),
			Outcome:     u.Outcome.Kind,
		}
		if u.Outcome.Kind == policy.RequirementNeedsUpdate {
			req, err := versioneer.FormatRequirement(u.Outcome.Requirement)
			if err != nil {
				return planView{}, err
			}
			uv.NewRequirement = req
		}
		view.Updates = append(view.Updates, uv)
	}
	return view, nil
}

func (v planView) writeText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s %s -> %s (%s)\n", v.Package, v.From, v.To, v.Severity); err != nil {
		return err
	}
	if len(v.Updates) == 0 {
		_, err := fmt.Fprintf(w, "no workspace member depends on %s\n", v.Package)
		return err
	}
	tbl := ui.NewTable(w, "DEPENDENT", "TABLE", "REQUIREMENT", "OUTCOME", "NEW")
	for _, u := range v.Updates {
		table := u.Table
		if u.Inherited {
			table += " (workspace)"
		}
		tbl.Row(u.Dependent, table, u.Requirement, u.Outcome, u.NewRequirement)
	}
	return tbl.Flush()
}

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <package> <version>",
		Short: "Show what releasing a member would change, without writing",
		Args:  exactArgs(2),
		RunE:  runPlan,
	}
}

func runPlan(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	plan, err := buildPlan(s.ws, args[0], args[1])
	if err != nil {
		return err
	}
	view, err := newPlanView(plan)
	if err != nil {
		return WrapExitError(ExitFailure, "formatting requirement", err)
	}
	return s.out.Success(view, view.writeText)
}

func buildPlan(ws *release.Workspace, name, version string) (*release.Plan, error) {
	next, err := parseVersionArg("new", version)
	if err != nil {
		return nil, err
	}
	plan, err := ws.NewPlan(name, next)
	if err != nil {
		return nil, wrapReleaseError("planning release", err)
	}
	return plan, nil
}
