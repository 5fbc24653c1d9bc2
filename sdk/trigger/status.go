package trigger

import (
	"github.com/shipyard-ci/shipctl/sdk"
)

// MergeStatus overwrites the status of the matching nodes of the graph.
// Nodes absent from the response keep their status. It returns true if
// any status of the response is in progress.
func MergeStatus(g *Graph, st *sdk.WorkflowStatusResponse) bool {
	if st == nil {
		return false
	}
	for _, s := range st.CIWorkflowStatus {
		n := g.Node(sdk.NodeKey{Type: sdk.NodeTypeCI, ID: s.CIPipelineID})
		if n == nil {
			continue
		}
		n.Status = s.CIStatus
		n.StorageConfigured = s.StorageConfigured
	}
	for _, s := range st.CDWorkflowStatus {
		setStatus(g, sdk.NodeKey{Type: sdk.NodeTypePreCD, ID: s.PipelineID}, s.PreStatus)
		setStatus(g, sdk.NodeKey{Type: sdk.NodeTypeCD, ID: s.PipelineID}, s.DeployStatus)
		setStatus(g, sdk.NodeKey{Type: sdk.NodeTypePostCD, ID: s.PipelineID}, s.PostStatus)
	}
	return st.InProgress()
}

func setStatus(g *Graph, k sdk.NodeKey, status string) {
	if status == "" {
		return
	}
	if n := g.Node(k); n != nil {
		n.Status = status
	}
}

// MergeStatusResponses concatenates the status of several applications.
func MergeStatusResponses(rs ...*sdk.WorkflowStatusResponse) *sdk.WorkflowStatusResponse {
	res := &sdk.WorkflowStatusResponse{}
	for _, r := range rs {
		if r == nil {
			continue
		}
		res.CIWorkflowStatus = append(res.CIWorkflowStatus, r.CIWorkflowStatus...)
		res.CDWorkflowStatus = append(res.CDWorkflowStatus, r.CDWorkflowStatus...)
	}
	return res
}
