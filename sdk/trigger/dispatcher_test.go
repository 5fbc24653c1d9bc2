package trigger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipyard-ci/shipctl/sdk"
	"github.com/shipyard-ci/shipctl/sdk/trigger"
)

func TestBuildCITriggerRequest(t *testing.T) {
	w := &sdk.Workflow{CIConfiguredGitMaterialID: 10}
	n := &sdk.Node{
		Key:   key(sdk.NodeTypeCI, 3),
		Title: "ci-backend",
		InputMaterialList: []sdk.CIMaterial{
			{ID: 31, GitMaterialID: 10, GitMaterialName: "backend-repo", Value: "main",
				History: []sdk.CommitHistory{{Commit: "c1"}, {Commit: "c2", Selected: true}}},
			{ID: 32, GitMaterialID: 12, GitMaterialName: "events", Type: sdk.SourceTypeWebhook, Value: "pr",
				History: []sdk.CommitHistory{{WebhookData: &sdk.WebhookData{ID: 77}}}},
			{ID: -11, GitMaterialID: 11, GitMaterialName: "charts", Value: sdk.UnsetBranchValue},
		},
	}

	req, err := trigger.BuildCITriggerRequest(w, n, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), req.PipelineID)
	assert.True(t, req.InvalidateCache)
	require.Len(t, req.CIPipelineMaterials, 2)
	assert.Equal(t, sdk.CITriggerMaterial{ID: 31, GitCommit: sdk.GitCommit{Commit: "c2"}}, req.CIPipelineMaterials[0])
	assert.Equal(t, sdk.CITriggerMaterial{ID: 32, GitCommit: sdk.GitCommit{WebhookData: &sdk.WebhookTrigger{ID: 77}}}, req.CIPipelineMaterials[1])
}

func TestBuildCITriggerRequestFirstCommitByDefault(t *testing.T) {
	n := &sdk.Node{
		Key: key(sdk.NodeTypeCI, 3),
		InputMaterialList: []sdk.CIMaterial{
			{ID: 31, GitMaterialID: 10, Value: "main", History: []sdk.CommitHistory{{Commit: "c1"}, {Commit: "c2"}}},
		},
	}
	req, err := trigger.BuildCITriggerRequest(&sdk.Workflow{}, n, false)
	require.NoError(t, err)
	assert.Equal(t, "c1", req.CIPipelineMaterials[0].GitCommit.Commit)
}

func TestBuildCITriggerRequestDockerfileSourceNotConfigured(t *testing.T) {
	w := &sdk.Workflow{CIConfiguredGitMaterialID: 10}
	n := &sdk.Node{
		Key: key(sdk.NodeTypeCI, 3),
		InputMaterialList: []sdk.CIMaterial{
			{ID: 31, GitMaterialID: 10, GitMaterialName: "backend-repo", Value: sdk.UnsetBranchValue,
				History: []sdk.CommitHistory{{Commit: "c1"}}},
			{ID: 32, GitMaterialID: 12, GitMaterialName: "lib", Value: "main",
				History: []sdk.CommitHistory{{Commit: "c9"}}},
		},
	}
	_, err := trigger.BuildCITriggerRequest(w, n, false)
	require.Error(t, err)
	assert.True(t, sdk.ErrorIs(err, sdk.ErrSourceNotConfigured))
	assert.Contains(t, err.Error(), "backend-repo")
}

func TestBuildCITriggerRequestWithoutHistory(t *testing.T) {
	n := &sdk.Node{
		Key:               key(sdk.NodeTypeCI, 3),
		InputMaterialList: []sdk.CIMaterial{{ID: 31, GitMaterialName: "backend-repo", Value: "main"}},
	}
	_, err := trigger.BuildCITriggerRequest(&sdk.Workflow{}, n, false)
	require.Error(t, err)
	assert.True(t, sdk.ErrorIs(err, sdk.ErrMissingTriggerData))
}

func TestBuildCDTriggerRequest(t *testing.T) {
	n := &sdk.Node{
		Key:          key(sdk.NodeTypePreCD, 7),
		ArtifactList: []sdk.Artifact{{ID: 1}, {ID: 2, Selected: true}},
		RollbackList: []sdk.Artifact{{ID: 3, WfrID: 40, Selected: true}},
	}
	req, err := trigger.BuildCDTriggerRequest(12, n, sdk.MaterialKindInput)
	require.NoError(t, err)
	assert.Equal(t, sdk.CDTriggerRequest{PipelineID: 7, AppID: 12, CIArtifactID: 2, CDWorkflowType: sdk.StagePre}, req)

	n.Key = key(sdk.NodeTypeCD, 7)
	req, err = trigger.BuildCDTriggerRequest(12, n, sdk.MaterialKindRollback)
	require.NoError(t, err)
	assert.Equal(t, sdk.StageDeploy, req.CDWorkflowType)
	assert.Equal(t, int64(3), req.CIArtifactID)
	assert.Equal(t, int64(40), req.WfrIDForDeploymentWithSpecificTrigger)
}

func TestBuildCDTriggerRequestMissingFields(t *testing.T) {
	n := &sdk.Node{Key: key(sdk.NodeTypePostCD, 8), ArtifactList: []sdk.Artifact{{ID: 1}}}

	_, err := trigger.BuildCDTriggerRequest(0, n, sdk.MaterialKindInput)
	require.Error(t, err)
	assert.True(t, sdk.ErrorIs(err, sdk.ErrMissingTriggerData))
	assert.Contains(t, err.Error(), "app id")
	assert.Contains(t, err.Error(), "artifact id")
	assert.NotContains(t, err.Error(), "pipeline id")
}
