package trigger

import (
	"strings"

	"github.com/shipyard-ci/shipctl/sdk"
)

// BuildCITriggerRequest builds the build request of a CI node from its material selection.
// It fails without calling anything when the material building the Dockerfile has no source.
func BuildCITriggerRequest(w *sdk.Workflow, n *sdk.Node, invalidateCache bool) (sdk.CITriggerRequest, error) {
	req := sdk.CITriggerRequest{
		PipelineID:      n.Key.ID,
		InvalidateCache: invalidateCache,
	}

	if w != nil && w.CIConfiguredGitMaterialID != 0 {
		if m := n.CIConfiguredMaterial(w.CIConfiguredGitMaterialID); m != nil && !m.IsSourceConfigured() {
			return req, sdk.NewErrorFrom(sdk.ErrSourceNotConfigured,
				"%s is used to build the Dockerfile and has no source configured in pipeline %s", m.GitMaterialName, n.Title)
		}
	}

	for i := range n.InputMaterialList {
		m := &n.InputMaterialList[i]
		if !m.IsSourceConfigured() {
			continue
		}
		commit := m.SelectedCommit()
		if commit == nil {
			return req, sdk.NewErrorFrom(sdk.ErrMissingTriggerData, "no commit found for material %s", m.GitMaterialName)
		}
		item := sdk.CITriggerMaterial{ID: m.ID}
		if m.IsWebhook() && commit.WebhookData != nil {
			item.GitCommit.WebhookData = &sdk.WebhookTrigger{ID: commit.WebhookData.ID}
		} else {
			item.GitCommit.Commit = commit.Commit
		}
		req.CIPipelineMaterials = append(req.CIPipelineMaterials, item)
	}

	if len(req.CIPipelineMaterials) == 0 {
		return req, sdk.NewErrorFrom(sdk.ErrMissingTriggerData, "no material to build in pipeline %s", n.Title)
	}
	return req, nil
}

// BuildCDTriggerRequest builds the deployment request of a CD family node from its selected artifact.
func BuildCDTriggerRequest(appID int64, n *sdk.Node, kind sdk.MaterialKind) (sdk.CDTriggerRequest, error) {
	req := sdk.CDTriggerRequest{
		AppID:          appID,
		CDWorkflowType: n.Key.Type.Stage(),
	}
	if n.Key.Type.IsCDFamily() {
		req.PipelineID = n.Key.ID
	}
	if a := n.SelectedArtifact(kind); a != nil {
		req.CIArtifactID = a.ID
		if kind == sdk.MaterialKindRollback {
			req.WfrIDForDeploymentWithSpecificTrigger = a.WfrID
		}
	}
	if missing := req.MissingFields(); len(missing) > 0 {
		return req, sdk.NewErrorFrom(sdk.ErrMissingTriggerData, "missing %s", strings.Join(missing, ", "))
	}
	return req, nil
}
