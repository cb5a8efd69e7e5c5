package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dephub/cargo-bump/providers/policy"
	"github.com/dephub/cargo-bump/providers/versioneer"
)

type classifyView struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Severity policy.Severity `json:"severity"`
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <old> <new>",
		Short: "Print the severity of a version bump",
		Long: `Print whether going from <old> to <new> is a major, minor or patch bump.

0.0.x bumps are always major. For 0.x versions a minor bump is major and a patch
bump is minor.`,
		Args: exactArgs(2),
		RunE: runClassify,
	}
}

func runClassify(cmd *cobra.Command, args []string) error {
	cur, err := parseVersionArg("old", args[0])
	if err != nil {
		return err
	}
	next, err := parseVersionArg("new", args[1])
	if err != nil {
		return err
	}
	if err := policy.CheckBump(cur, next); err != nil {
		return WrapExitError(ExitCommandError, "cannot classify", err)
	}

	view := classifyView{From: cur.String(), To: next.String(), Severity: policy.Classify(cur, next)}
	return newFormatter(cmd).Success(view, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, view.Severity)
		return err
	})
}

func parseVersionArg(name, value string) (versioneer.Version, error) {
	v, err := versioneer.ParseVersion(value)
	if err != nil {
		return versioneer.Version{}, WrapExitError(ExitCommandError, name+" version", err)
	}
	return v, nil
}
