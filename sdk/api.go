package sdk

import (
	"encoding/json"
	"strconv"
)

// Envelope is the response body of every API call.
type Envelope struct {
	Code   int             `json:"code"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
}

// HasResult returns false when the server answered without a result.
func (e Envelope) HasResult() bool {
	return len(e.Result) > 0 && string(e.Result) != "null"
}

// Workflow tree entry types
const (
	TreeTypeCIPipeline = "CI_PIPELINE"
	TreeTypeCDPipeline = "CD_PIPELINE"
	TreeTypeWebhook    = "WEBHOOK"
)

// WorkflowsResponse lists the workflows of an application.
type WorkflowsResponse struct {
	AppID     int64          `json:"appId"`
	AppName   string         `json:"appName"`
	Workflows []WorkflowTree `json:"workflows"`
}

// WorkflowTree is the server description of one workflow.
type WorkflowTree struct {
	ID    int64              `json:"id"`
	Name  string             `json:"name"`
	AppID int64              `json:"appId"`
	Tree  []WorkflowTreeNode `json:"tree"`
}

// WorkflowTreeNode links a pipeline to its parent in a workflow.
type WorkflowTreeNode struct {
	ID            int64  `json:"id"`
	AppWorkflowID int64  `json:"appWorkflowId"`
	Type          string `json:"type"`
	ComponentID   int64  `json:"componentId"`
	ParentID      int64  `json:"parentId"`
	ParentType    string `json:"parentType"`
}

// CIPipelinesResponse lists the CI pipelines of an application.
type CIPipelinesResponse struct {
	AppID           int64        `json:"appId"`
	AppName         string       `json:"appName"`
	CIGitMaterialID int64        `json:"ciGitConfiguredId"`
	CIPipelines     []CIPipeline `json:"ciPipelines"`
}

// CIPipeline is a CI pipeline configuration.
type CIPipeline struct {
	ID               int64                `json:"id"`
	Name             string               `json:"name"`
	IsExternal       bool                 `json:"isExternal"`
	IsManual         bool                 `json:"isManual"`
	ParentCIPipeline int64                `json:"parentCiPipeline"`
	ParentAppID      int64                `json:"parentAppId"`
	CIMaterials      []CIPipelineMaterial `json:"ciMaterial"`
	IsCacheAvailable bool                 `json:"isCacheAvailable"`
}

// CIPipelineMaterial is a material configured in a CI pipeline.
type CIPipelineMaterial struct {
	ID              int64          `json:"id"`
	GitMaterialID   int64          `json:"gitMaterialId"`
	GitMaterialName string         `json:"gitMaterialName"`
	Source          MaterialSource `json:"source"`
}

// MaterialSource is the branch/tag/webhook selector of a CI material.
type MaterialSource struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Regex string `json:"regex"`
}

// CDPipelinesResponse lists the CD pipelines of an application.
type CDPipelinesResponse struct {
	AppID     int64        `json:"appId"`
	Pipelines []CDPipeline `json:"pipelines"`
}

// CDPipeline is a CD pipeline configuration.
type CDPipeline struct {
	ID                 int64               `json:"id"`
	Name               string              `json:"name"`
	EnvironmentID      int64               `json:"environmentId"`
	EnvironmentName    string              `json:"environmentName"`
	CIPipelineID       int64               `json:"ciPipelineId"`
	TriggerType        string              `json:"triggerType"`
	DeploymentStrategy string              `json:"deploymentTemplate"`
	PreStage           *CDStage            `json:"preStage,omitempty"`
	PostStage          *CDStage            `json:"postStage,omitempty"`
	ParentPipelineID   int64               `json:"parentPipelineId"`
	ParentPipelineType string              `json:"parentPipelineType"`
	UserApprovalConfig *UserApprovalConfig `json:"userApprovalConf,omitempty"`
}

// CDStage is a pre or post deployment stage.
type CDStage struct {
	Name        string `json:"name"`
	Config      string `json:"config"`
	TriggerType string `json:"triggerType"`
}

// IsConfigured returns true if the stage has a configuration.
func (s *CDStage) IsConfigured() bool {
	return s != nil && s.Config != ""
}

// UserApprovalConfig describes approvals required before deploying.
type UserApprovalConfig struct {
	RequiredCount int      `json:"requiredCount"`
	Approvers     []string `json:"approvers"`
}

// GitMaterial is an application level git repository binding.
type GitMaterial struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	CheckoutPath string `json:"checkoutPath"`
}

// AppMaterialsResponse lists the git materials of an application.
type AppMaterialsResponse struct {
	AppID     int64         `json:"id"`
	AppName   string        `json:"appName"`
	Materials []GitMaterial `json:"material"`
}

// WorkflowStatusResponse is the aggregate status of all pipelines of an application.
type WorkflowStatusResponse struct {
	CIWorkflowStatus []CIWorkflowStatus `json:"ciWorkflowStatus"`
	CDWorkflowStatus []CDWorkflowStatus `json:"cdWorkflowStatus"`
}

// CIWorkflowStatus is the status of a CI pipeline.
type CIWorkflowStatus struct {
	CIPipelineID      int64  `json:"ciPipelineId"`
	CIPipelineName    string `json:"ciPipelineName"`
	CIStatus          string `json:"ciStatus"`
	StorageConfigured bool   `json:"storageConfigured"`
}

// CDWorkflowStatus is the status of the stages of a CD pipeline.
type CDWorkflowStatus struct {
	CIPipelineID int64  `json:"ci_pipeline_id"`
	PipelineID   int64  `json:"pipeline_id"`
	DeployStatus string `json:"deploy_status"`
	PreStatus    string `json:"pre_status"`
	PostStatus   string `json:"post_status"`
}

// InProgress returns true if any pipeline is in flight.
func (r WorkflowStatusResponse) InProgress() bool {
	for _, s := range r.CIWorkflowStatus {
		if StatusIsInProgress(s.CIStatus) {
			return true
		}
	}
	for _, s := range r.CDWorkflowStatus {
		if StatusIsInProgress(s.DeployStatus) || StatusIsInProgress(s.PreStatus) || StatusIsInProgress(s.PostStatus) {
			return true
		}
	}
	return false
}

// CDMaterialsResponse lists the artifact candidates of a CD pipeline.
type CDMaterialsResponse struct {
	CIArtifacts []Artifact `json:"ci_artifacts"`
}

func itoa(i int64) string {
	return strconv.FormatInt(i, 10)
}
