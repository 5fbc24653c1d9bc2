package shipclient

import (
	"context"
	"net/http"

	"github.com/shipyard-ci/shipctl/sdk"
)

// Interface is the main interface for shipclient package
type Interface interface {
	WorkflowClient
	MaterialClient
	TriggerClient
	TemplateClient
	APIURL() string
	HTTPClient() *http.Client
}

// WorkflowClient exposes the pipeline and workflow listings of an application
type WorkflowClient interface {
	WorkflowList(ctx context.Context, appID int64) (*sdk.WorkflowsResponse, error)
	CIPipelineList(ctx context.Context, appID int64) (*sdk.CIPipelinesResponse, error)
	CDPipelineList(ctx context.Context, appID int64) (*sdk.CDPipelinesResponse, error)
	AppMaterialList(ctx context.Context, appID int64) (*sdk.AppMaterialsResponse, error)
	WorkflowStatus(ctx context.Context, appID int64) (*sdk.WorkflowStatusResponse, error)
}

// MaterialClient exposes git material histories and artifact candidates
type MaterialClient interface {
	CIMaterialList(ctx context.Context, ciPipelineID int64) ([]sdk.CIMaterial, error)
	CIMaterialRefresh(ctx context.Context, gitMaterialID int64) error
	CDMaterialList(ctx context.Context, cdPipelineID int64, stage sdk.Stage) ([]sdk.Artifact, error)
	CDRollbackMaterialList(ctx context.Context, cdPipelineID int64) ([]sdk.Artifact, error)
}

// TriggerClient starts CI builds and CD deployments.
// A nil response with a nil error means the server answered without a result.
type TriggerClient interface {
	CITrigger(ctx context.Context, req sdk.CITriggerRequest) (*sdk.TriggerResponse, error)
	CDTrigger(ctx context.Context, req sdk.CDTriggerRequest) (*sdk.TriggerResponse, error)
}

// TemplateClient exposes deployment templates and their environment overrides
type TemplateClient interface {
	ChartRefList(ctx context.Context, appID int64) (*sdk.ChartRefsResponse, error)
	AppTemplateGet(ctx context.Context, appID, chartRefID int64) (*sdk.AppTemplate, error)
	EnvTemplateGet(ctx context.Context, appID, envID, chartRefID int64) (*sdk.EnvTemplateResponse, error)
	EnvTemplateSave(ctx context.Context, appID int64, req sdk.EnvTemplateSaveRequest) (*sdk.EnvTemplate, error)
}
