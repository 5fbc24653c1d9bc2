package shipclient

import (
	"context"
	"fmt"

	"github.com/shipyard-ci/shipctl/sdk"
)

func (c *client) WorkflowList(ctx context.Context, appID int64) (*sdk.WorkflowsResponse, error) {
	url := fmt.Sprintf("/orchestrator/app/app-wf/view/%d", appID)
	res := sdk.WorkflowsResponse{}
	if _, err := c.GetJSON(ctx, url, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *client) CIPipelineList(ctx context.Context, appID int64) (*sdk.CIPipelinesResponse, error) {
	url := fmt.Sprintf("/orchestrator/app/ci-pipeline/%d", appID)
	res := sdk.CIPipelinesResponse{}
	if _, err := c.GetJSON(ctx, url, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *client) CDPipelineList(ctx context.Context, appID int64) (*sdk.CDPipelinesResponse, error) {
	url := fmt.Sprintf("/orchestrator/app/cd-pipeline/%d", appID)
	res := sdk.CDPipelinesResponse{}
	if _, err := c.GetJSON(ctx, url, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *client) AppMaterialList(ctx context.Context, appID int64) (*sdk.AppMaterialsResponse, error) {
	url := fmt.Sprintf("/orchestrator/app/get/%d", appID)
	res := sdk.AppMaterialsResponse{}
	if _, err := c.GetJSON(ctx, url, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *client) WorkflowStatus(ctx context.Context, appID int64) (*sdk.WorkflowStatusResponse, error) {
	url := fmt.Sprintf("/orchestrator/app/workflow/status/%d", appID)
	res := sdk.WorkflowStatusResponse{}
	if _, err := c.GetJSON(ctx, url, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
