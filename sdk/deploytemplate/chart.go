package deploytemplate

import (
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/shipyard-ci/shipctl/sdk"
)

// Sort orders chart refs by name, then by descending version.
// Refs with an invalid version come last.
func Sort(refs []sdk.ChartRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Name != refs[j].Name {
			return refs[i].Name < refs[j].Name
		}
		vi, erri := semver.NewVersion(refs[i].Version)
		vj, errj := semver.NewVersion(refs[j].Version)
		switch {
		case erri != nil && errj != nil:
			return refs[i].Version > refs[j].Version
		case erri != nil:
			return false
		case errj != nil:
			return true
		}
		return vi.GreaterThan(vj)
	})
}

// Latest returns the highest version of the chart, any chart if name is empty.
func Latest(refs []sdk.ChartRef, name string) (*sdk.ChartRef, error) {
	var latest *sdk.ChartRef
	var latestVersion *semver.Version
	for i := range refs {
		if name != "" && refs[i].Name != name {
			continue
		}
		v, err := semver.NewVersion(refs[i].Version)
		if err != nil {
			continue
		}
		if latestVersion == nil || v.GreaterThan(latestVersion) {
			latest, latestVersion = &refs[i], v
		}
	}
	if latest == nil {
		return nil, sdk.NewErrorFrom(sdk.ErrNotFound, "no chart %q with a valid version", name)
	}
	return latest, nil
}

// Matching returns the refs whose version satisfies the constraint, e.g. ">= 4.0, < 5".
func Matching(refs []sdk.ChartRef, constraint string) ([]sdk.ChartRef, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, sdk.NewErrorFrom(sdk.ErrWrongRequest, "invalid version constraint %q: %v", constraint, err)
	}
	var res []sdk.ChartRef
	for _, r := range refs {
		v, err := semver.NewVersion(r.Version)
		if err != nil {
			continue
		}
		if c.Check(v) {
			res = append(res, r)
		}
	}
	return res, nil
}

// Find returns the ref with the given id.
func Find(refs []sdk.ChartRef, id int64) (*sdk.ChartRef, error) {
	for i := range refs {
		if refs[i].ID == id {
			return &refs[i], nil
		}
	}
	return nil, sdk.NewErrorFrom(sdk.ErrNotFound, "chart ref %d not found", id)
}
