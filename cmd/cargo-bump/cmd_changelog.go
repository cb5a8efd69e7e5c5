package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

type changelogView struct {
	Package    string `json:"package"`
	Version    string `json:"version"`
	Changelog  string `json:"changelog"`
	Unreleased string `json:"unreleased"`
}

func newChangelogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "changelog <package>",
		Short: "Print the unreleased changelog section of a member",
		Args:  exactArgs(1),
		RunE:  runChangelog,
	}
}

func runChangelog(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	m, err := s.ws.Member(args[0])
	if err != nil {
		return wrapReleaseError("changelog", err)
	}
	section, found, err := s.ws.Unreleased(cmd.Context(), m)
	if err != nil {
		return WrapExitError(ExitFailure, "reading changelog", err)
	}
	if !found {
		return NewExitError(ExitFailure, fmt.Sprintf("%s has no changelog", m.Name))
	}

	view := changelogView{Package: m.Name, Version: m.Version.String(), Changelog: m.Changelog, Unreleased: section}
	return s.out.Success(view, func(w io.Writer) error {
		if strings.TrimSpace(section) == "" {
			s.out.Note("no unreleased changes since %s", m.Version)
			return nil
		}
		_, err := fmt.Fprintln(w, strings.TrimRight(section, "\n"))
		return err
	})
}
