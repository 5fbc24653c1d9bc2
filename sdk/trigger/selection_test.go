package trigger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipyard-ci/shipctl/sdk"
	"github.com/shipyard-ci/shipctl/sdk/trigger"
)

func ciNodeWithHistory() *sdk.Node {
	return &sdk.Node{
		Key: key(sdk.NodeTypeCI, 3),
		InputMaterialList: []sdk.CIMaterial{
			{
				ID:       31,
				Value:    "main",
				Selected: true,
				History: []sdk.CommitHistory{
					{Commit: "abc123", Excluded: true},
					{Commit: "def456", Selected: true},
					{Commit: "0a1b2c"},
				},
			},
			{ID: 32, Value: "develop"},
			{ID: 33, Value: "release"},
		},
	}
}

func TestSelectCommitSkipsExcluded(t *testing.T) {
	n := ciNodeWithHistory()
	require.NoError(t, trigger.SelectCommit(n, 31, "abc123"))
	for _, h := range n.InputMaterialList[0].History {
		assert.False(t, h.Selected, h.Commit)
	}
}

func TestSelectCommit(t *testing.T) {
	n := ciNodeWithHistory()
	require.NoError(t, trigger.SelectCommit(n, 31, "0a1b2c"))
	h := n.InputMaterialList[0].History
	assert.False(t, h[0].Selected)
	assert.False(t, h[1].Selected)
	assert.True(t, h[2].Selected)

	assert.Error(t, trigger.SelectCommit(n, 99, "0a1b2c"))
}

func TestSelectCommitWebhook(t *testing.T) {
	n := &sdk.Node{InputMaterialList: []sdk.CIMaterial{{
		ID:   31,
		Type: sdk.SourceTypeWebhook,
		History: []sdk.CommitHistory{
			{WebhookData: &sdk.WebhookData{ID: 5}},
			{WebhookData: &sdk.WebhookData{ID: 6}},
		},
	}}}
	require.NoError(t, trigger.SelectCommit(n, 31, "6"))
	assert.False(t, n.InputMaterialList[0].History[0].Selected)
	assert.True(t, n.InputMaterialList[0].History[1].Selected)
}

func TestSelectMaterial(t *testing.T) {
	for _, id := range []int64{31, 32, 33} {
		n := ciNodeWithHistory()
		require.NoError(t, trigger.SelectMaterial(n, id))
		var selected []int64
		for _, m := range n.InputMaterialList {
			if m.Selected {
				selected = append(selected, m.ID)
			}
		}
		assert.Equal(t, []int64{id}, selected)
	}

	n := ciNodeWithHistory()
	assert.Error(t, trigger.SelectMaterial(n, 99))
	assert.True(t, n.InputMaterialList[0].Selected)
}

func TestSelectImage(t *testing.T) {
	n := &sdk.Node{
		Key:          key(sdk.NodeTypeCD, 7),
		ArtifactList: []sdk.Artifact{{ID: 1, Selected: true}, {ID: 2}, {ID: 3}},
		RollbackList: []sdk.Artifact{{ID: 4}, {ID: 5}},
	}
	require.NoError(t, trigger.SelectImage(n, 2, sdk.MaterialKindInput))
	assert.Equal(t, int64(3), n.SelectedArtifact(sdk.MaterialKindInput).ID)
	assert.False(t, n.ArtifactList[0].Selected)

	require.NoError(t, trigger.SelectImage(n, 1, sdk.MaterialKindRollback))
	assert.Equal(t, int64(5), n.SelectedArtifact(sdk.MaterialKindRollback).ID)
	assert.Equal(t, int64(3), n.SelectedArtifact(sdk.MaterialKindInput).ID)

	assert.Error(t, trigger.SelectImage(n, 3, sdk.MaterialKindInput))
}

func TestToggleChanges(t *testing.T) {
	n := ciNodeWithHistory()
	require.NoError(t, trigger.ToggleChanges(n, 31, "def456"))
	assert.True(t, n.InputMaterialList[0].History[1].ShowChanges)
	require.NoError(t, trigger.ToggleChanges(n, 31, "def456"))
	assert.False(t, n.InputMaterialList[0].History[1].ShowChanges)
	assert.Error(t, trigger.ToggleChanges(n, 31, "nope"))
}
