package sdk

import "fmt"

// CITriggerRequest is the payload of a CI build.
type CITriggerRequest struct {
	PipelineID          int64                  `json:"pipelineId"`
	CIPipelineMaterials []CITriggerMaterial    `json:"ciPipelineMaterials"`
	InvalidateCache     bool                   `json:"invalidateCache"`
	EnvironmentID       int64                  `json:"environmentId,omitempty"`
	PipelineType        string                 `json:"pipelineType,omitempty"`
	RuntimeParams       map[string]interface{} `json:"runtimeParams,omitempty"`
}

// CITriggerMaterial references the commit to build for one material.
type CITriggerMaterial struct {
	ID        int64     `json:"Id"`
	GitCommit GitCommit `json:"GitCommit"`
}

// GitCommit references either a commit hash or a webhook event.
type GitCommit struct {
	Commit      string          `json:"Commit,omitempty"`
	WebhookData *WebhookTrigger `json:"WebhookData,omitempty"`
}

// WebhookTrigger references a webhook event.
type WebhookTrigger struct {
	ID int64 `json:"id"`
}

// CDTriggerRequest is the payload of a deployment.
type CDTriggerRequest struct {
	PipelineID                            int64 `json:"pipelineId"`
	AppID                                 int64 `json:"appId"`
	CIArtifactID                          int64 `json:"ciArtifactId"`
	CDWorkflowType                        Stage `json:"cdWorkflowType"`
	WfrIDForDeploymentWithSpecificTrigger int64 `json:"wfrIdForDeploymentWithSpecificTrigger,omitempty"`
}

// MissingFields returns the names of the mandatory fields left empty.
func (r CDTriggerRequest) MissingFields() []string {
	var missing []string
	if r.PipelineID == 0 {
		missing = append(missing, "pipeline id")
	}
	if r.AppID == 0 {
		missing = append(missing, "app id")
	}
	if r.CIArtifactID == 0 {
		missing = append(missing, "artifact id")
	}
	return missing
}

// TriggerResponse is the result of a trigger call.
type TriggerResponse struct {
	AppID               int64  `json:"appId,omitempty"`
	WorkflowID          int64  `json:"workflowId,omitempty"`
	CIWorkflowID        int64  `json:"ciWorkflowId,omitempty"`
	AuthorizationStatus string `json:"authStatus,omitempty"`
}

// BulkStatus classifies the outcome of one call of a bulk trigger.
type BulkStatus string

// Bulk statuses
const (
	BulkStatusPass        BulkStatus = "PASS"
	BulkStatusFail        BulkStatus = "FAIL"
	BulkStatusUnauthorize BulkStatus = "UNAUTHORIZE"
)

// AppRef identifies the application of a bulk trigger call.
type AppRef struct {
	AppID   int64  `json:"appId"`
	AppName string `json:"appName"`
}

func (a AppRef) String() string {
	if a.AppName != "" {
		return a.AppName
	}
	return fmt.Sprintf("app %d", a.AppID)
}

// ResponseRow is the outcome of one call of a bulk trigger.
type ResponseRow struct {
	AppID   int64      `json:"appId" cli:"app_id,key"`
	AppName string     `json:"appName" cli:"app_name"`
	Status  BulkStatus `json:"status" cli:"status"`
	Message string     `json:"message" cli:"message"`
}
