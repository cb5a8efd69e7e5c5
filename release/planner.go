package release

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/dephub/cargo-bump/internal/logger"
	"github.com/dephub/cargo-bump/providers/policy"
	"github.com/dephub/cargo-bump/providers/tomledit"
	"github.com/dephub/cargo-bump/providers/versioneer"
)

// Plan represents the release of one member and its effect on the dependents.
type Plan struct {
	Member   *Member
	From     versioneer.Version
	To       versioneer.Version
	Severity policy.Severity
	// Updates holds one entry per dependent, in Member.Dependents order.
	Updates []Update
}

// Update is the reconcile outcome for one dependent requirement.
type Update struct {
	Dependent Dependent
	Current   versioneer.Requirement
	Outcome   policy.Outcome
}

// Change records one applied manifest edit.
type Change struct {
	ManifestPath string `json:"manifest_path"`
	Field        string `json:"field"`
	From         string `json:"from"`
	To           string `json:"to"`
}

// ValidateVersion checks that next can be released after cur.
func ValidateVersion(cur, next versioneer.Version) error {
	if next.Prerelease() != "" || next.Metadata() != "" {
		return fmt.Errorf("%w: %s", ErrPrereleaseVersion, next)
	}
	if !next.GreaterThan(cur) {
		return fmt.Errorf("%w: %s is not higher than %s", ErrVersionNotHigher, next, cur)
	}
	if err := policy.CheckBump(cur, next); err != nil {
		// 1.0.0-rc.1 -> 1.0.0
		return fmt.Errorf("%w: %v", ErrPrereleaseVersion, err)
	}
	return nil
}

// NewPlan reconciles every dependent of the member called name with the release of
// version.
func (ws *Workspace) NewPlan(name string, version versioneer.Version) (*Plan, error) {
	m, err := ws.Member(name)
	if err != nil {
		return nil, err
	}
	if err := ValidateVersion(m.Version, version); err != nil {
		return nil, &OpError{Op: "release.plan", Kind: KindInvalidVersion, Path: m.ManifestPath, Err: err}
	}

	plan := &Plan{
		Member:   m,
		From:     m.Version,
		To:       version,
		Severity: policy.Classify(m.Version, version),
		Updates:  make([]Update, 0, len(m.Dependents)),
	}
	for _, d := range m.Dependents {
		plan.Updates = append(plan.Updates, Update{
			Dependent: d,
			Current:   d.Dependency.Requirement,
			Outcome:   policy.Reconcile(d.Dependency.Requirement, m.Version, version),
		})
	}

	logger.L().Info("release.planned",
		"package", m.Name,
		"from", plan.From.String(),
		"to", plan.To.String(),
		"severity", plan.Severity.String(),
		"dependents", len(plan.Updates),
	)
	return plan, nil
}

// Only returns a copy of the plan restricted to the named dependents. Every name must
// be a dependent of the planned member.
func (p *Plan) Only(names ...string) (*Plan, error) {
	known := map[string]bool{}
	for _, u := range p.Updates {
		known[u.Dependent.Member.Name] = true
	}
	wanted := map[string]bool{}
	for _, n := range names {
		if !known[n] {
			return nil, &OpError{Op: "release.select", Kind: KindNotFound, Err: fmt.Errorf("%w: %s does not depend on %s", ErrMemberNotFound, n, p.Member.Name)}
		}
		wanted[n] = true
	}

	res := *p
	res.Updates = nil
	for _, u := range p.Updates {
		if wanted[u.Dependent.Member.Name] {
			res.Updates = append(res.Updates, u)
		}
	}
	return &res, nil
}

// edit is one string replacement in a manifest.
type edit struct {
	keyPath []string
	from    string
	to      string
}

// Apply writes the plan: the new package version, then the replacement requirement of
// every dependent whose outcome is RequirementNeedsUpdate. Other outcomes are logged
// and skipped. With dryRun the changes are computed but nothing is written.
//
// Edits are grouped per manifest so each file is written once.
func (ws *Workspace) Apply(ctx context.Context, plan *Plan, dryRun bool) ([]Change, error) {
	var order []string
	edits := map[string][]edit{}
	add := func(manifest string, e edit) {
		for _, prev := range edits[manifest] {
			if strings.Join(prev.keyPath, ".") == strings.Join(e.keyPath, ".") {
				// several dependents inherit the same [workspace.dependencies] entry
				return
			}
		}
		if _, ok := edits[manifest]; !ok {
			order = append(order, manifest)
		}
		edits[manifest] = append(edits[manifest], e)
	}

	m := plan.Member
	if m.InheritedVersion {
		add(ws.RootManifest, edit{[]string{"workspace", "package", "version"}, plan.From.String(), plan.To.String()})
	} else {
		add(m.ManifestPath, edit{[]string{"package", "version"}, plan.From.String(), plan.To.String()})
	}

	for _, u := range plan.Updates {
		d := u.Dependent
		if u.Outcome.Kind != policy.RequirementNeedsUpdate {
			logger.L().Info("dependent.skipped",
				"package", m.Name,
				"dependent", d.Member.Name,
				"requirement", u.Current.String(),
				"outcome", u.Outcome.Kind.String(),
			)
			continue
		}

		req, err := versioneer.FormatRequirement(u.Outcome.Requirement)
		if err != nil {
			return nil, &OpError{Op: "release.apply", Kind: KindEdit, Path: d.Member.ManifestPath, Err: err}
		}
		if d.Dependency.Inherited {
			add(ws.RootManifest, edit{[]string{"workspace", "dependencies", d.Dependency.Key, "version"}, u.Current.String(), req})
		} else {
			add(d.Member.ManifestPath, edit{[]string{d.Dependency.Table, d.Dependency.Key, "version"}, u.Current.String(), req})
		}
	}

	var changes []Change
	for _, manifest := range order {
		doc, err := ws.store.FileContent(ctx, manifest)
		if err != nil {
			return changes, &OpError{Op: "release.apply", Kind: KindNotFound, Path: manifest, Err: err}
		}

		for _, e := range edits[manifest] {
			doc, err = tomledit.SetString(doc, e.keyPath, e.to)
			if err != nil {
				return changes, &OpError{Op: "release.apply", Kind: KindEdit, Path: manifest, Err: err}
			}
			changes = append(changes, Change{
				ManifestPath: manifest,
				Field:        strings.Join(e.keyPath, "."),
				From:         e.from,
				To:           e.to,
			})
		}

		if dryRun {
			continue
		}
		if err := ws.store.WriteContent(ctx, manifest, doc); err != nil {
			return changes, &OpError{Op: "release.apply", Kind: KindEdit, Path: manifest, Err: err}
		}
		logger.L().Info("manifest.updated", "path", path.Clean(manifest), "edits", len(edits[manifest]))
	}

	return changes, nil
}
