package trigger

import (
	"github.com/shipyard-ci/shipctl/sdk"
)

// SelectCommit selects the history row matching ref in the material materialID of the node.
// Excluded rows are never selected: selecting one leaves the material without selection.
func SelectCommit(n *sdk.Node, materialID int64, ref string) error {
	m := material(n, materialID)
	if m == nil {
		return sdk.NewErrorFrom(sdk.ErrNotFound, "material %d not found on %s", materialID, n.Key)
	}
	for i := range m.History {
		h := &m.History[i]
		h.Selected = !h.Excluded && h.Reference() == ref
	}
	return nil
}

// SelectMaterial selects exactly one material among the materials of the node.
func SelectMaterial(n *sdk.Node, materialID int64) error {
	if material(n, materialID) == nil {
		return sdk.NewErrorFrom(sdk.ErrNotFound, "material %d not found on %s", materialID, n.Key)
	}
	for i := range n.InputMaterialList {
		n.InputMaterialList[i].Selected = n.InputMaterialList[i].ID == materialID
	}
	return nil
}

// SelectImage selects exactly one artifact of the given list by position.
func SelectImage(n *sdk.Node, index int, kind sdk.MaterialKind) error {
	list := n.Materials(kind)
	if index < 0 || index >= len(list) {
		return sdk.NewErrorFrom(sdk.ErrNotFound, "no artifact at index %d on %s", index, n.Key)
	}
	for i := range list {
		list[i].Selected = i == index
	}
	return nil
}

// ToggleChanges flips the display of the changed files of a history row.
func ToggleChanges(n *sdk.Node, materialID int64, ref string) error {
	m := material(n, materialID)
	if m == nil {
		return sdk.NewErrorFrom(sdk.ErrNotFound, "material %d not found on %s", materialID, n.Key)
	}
	for i := range m.History {
		if m.History[i].Reference() == ref {
			m.History[i].ShowChanges = !m.History[i].ShowChanges
			return nil
		}
	}
	return sdk.NewErrorFrom(sdk.ErrNotFound, "commit %s not found in material %d", ref, materialID)
}

func material(n *sdk.Node, materialID int64) *sdk.CIMaterial {
	for i := range n.InputMaterialList {
		if n.InputMaterialList[i].ID == materialID {
			return &n.InputMaterialList[i]
		}
	}
	return nil
}

// ensureSelection keeps the previous material selection on a fresh list,
// or selects the first material.
func ensureSelection(materials []sdk.CIMaterial, selectedID int64) {
	if len(materials) == 0 {
		return
	}
	found := false
	for i := range materials {
		materials[i].Selected = materials[i].ID == selectedID
		found = found || materials[i].Selected
	}
	if !found {
		materials[0].Selected = true
	}
}

// ensureArtifactSelection selects the first artifact if none is selected.
func ensureArtifactSelection(list []sdk.Artifact) {
	for i := range list {
		if list[i].Selected {
			return
		}
	}
	if len(list) > 0 {
		list[0].Selected = true
	}
}
