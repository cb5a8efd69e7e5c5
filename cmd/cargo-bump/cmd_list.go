package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/dephub/cargo-bump/internal/ui"
)

type memberView struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Manifest     string `json:"manifest"`
	Inherited    bool   `json:"version_inherited,omitempty"`
	Dependencies int    `json:"dependencies"`
	Dependents   int    `json:"dependents"`
	Changelog    string `json:"changelog,omitempty"`
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the workspace members",
		Args:  exactArgs(0),
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	views := make([]memberView, 0, len(s.ws.Members))
	for _, m := range s.ws.Members {
		views = append(views, memberView{
			Name:         m.Name,
			Version:      m.Version.String(),
			Manifest:     m.ManifestPath,
			Inherited:    m.InheritedVersion,
			Dependencies: m.NormalDependencies(),
			Dependents:   m.DependentMembers(),
			Changelog:    m.Changelog,
		})
	}

	return s.out.Success(views, func(w io.Writer) error {
		tbl := ui.NewTable(w, "NAME", "VERSION", "DEPENDENCIES", "DEPENDENTS", "CHANGELOG")
		for _, v := range views {
			tbl.Row(v.Name, v.Version, v.Dependencies, v.Dependents, v.Changelog)
		}
		return tbl.Flush()
	})
}
