package trigger_test

import (
	"github.com/shipyard-ci/shipctl/sdk"
	"github.com/shipyard-ci/shipctl/sdk/trigger"
)

// app 12 "backend": one workflow, CI 3 -> PRECD 7 -> CD 7 -> CD 8 -> POSTCD 8.
// The tree lists CD 8 before its parent CD 7.
func fixtureSources() trigger.Sources {
	return fixtureApp(12, "backend", 0)
}

// fixtureApp returns the backend fixture with every id but environments shifted by base.
func fixtureApp(appID int64, name string, base int64) trigger.Sources {
	return trigger.Sources{
		Workflows: &sdk.WorkflowsResponse{
			AppID:   appID,
			AppName: name,
			Workflows: []sdk.WorkflowTree{
				{
					ID:   base + 1,
					Name: "wf-" + name,
					Tree: []sdk.WorkflowTreeNode{
						{Type: sdk.TreeTypeCIPipeline, ComponentID: base + 3},
						{Type: sdk.TreeTypeCDPipeline, ComponentID: base + 8, ParentID: base + 7, ParentType: sdk.TreeTypeCDPipeline},
						{Type: sdk.TreeTypeCDPipeline, ComponentID: base + 7, ParentID: base + 3, ParentType: sdk.TreeTypeCIPipeline},
					},
				},
			},
		},
		CIPipelines: &sdk.CIPipelinesResponse{
			AppID:           appID,
			CIGitMaterialID: base + 10,
			CIPipelines: []sdk.CIPipeline{
				{
					ID:   base + 3,
					Name: "ci-" + name,
					CIMaterials: []sdk.CIPipelineMaterial{
						{ID: base + 31, GitMaterialID: base + 10, GitMaterialName: "backend-repo", Source: sdk.MaterialSource{Type: sdk.SourceTypeBranchFixed, Value: "main"}},
					},
				},
			},
		},
		CDPipelines: &sdk.CDPipelinesResponse{
			AppID: appID,
			Pipelines: []sdk.CDPipeline{
				{ID: base + 7, Name: "deploy-staging", EnvironmentID: 1, EnvironmentName: "staging", CIPipelineID: base + 3, TriggerType: "AUTOMATIC",
					PreStage: &sdk.CDStage{Name: "pre", Config: "script: echo pre", TriggerType: "AUTOMATIC"}},
				{ID: base + 8, Name: "deploy-prod", EnvironmentID: 2, EnvironmentName: "prod", CIPipelineID: base + 3, TriggerType: "MANUAL",
					ParentPipelineID: base + 7, ParentPipelineType: sdk.TreeTypeCDPipeline,
					PostStage: &sdk.CDStage{Name: "post", Config: "script: echo post", TriggerType: "MANUAL"}},
			},
		},
		Materials: &sdk.AppMaterialsResponse{
			AppID: appID,
			Materials: []sdk.GitMaterial{
				{ID: base + 10, Name: "backend-repo", URL: "https://github.com/acme/backend-repo.git"},
				{ID: base + 11, URL: "git@github.com:acme/charts.git"},
			},
		},
	}
}

func fixtureStatus() *sdk.WorkflowStatusResponse {
	return &sdk.WorkflowStatusResponse{
		CIWorkflowStatus: []sdk.CIWorkflowStatus{
			{CIPipelineID: 3, CIStatus: "Running", StorageConfigured: true},
		},
		CDWorkflowStatus: []sdk.CDWorkflowStatus{
			{CIPipelineID: 3, PipelineID: 7, PreStatus: "Succeeded", DeployStatus: "progressing"},
			{CIPipelineID: 3, PipelineID: 8, DeployStatus: "Not Triggered"},
		},
	}
}

func key(t sdk.NodeType, id int64) sdk.NodeKey {
	return sdk.NodeKey{Type: t, ID: id}
}
