package shipclient

import (
	"context"
	"fmt"

	"github.com/shipyard-ci/shipctl/sdk"
)

func (c *client) ChartRefList(ctx context.Context, appID int64) (*sdk.ChartRefsResponse, error) {
	url := fmt.Sprintf("/orchestrator/chartref/autocomplete/%d", appID)
	res := sdk.ChartRefsResponse{}
	if _, err := c.GetJSON(ctx, url, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *client) AppTemplateGet(ctx context.Context, appID, chartRefID int64) (*sdk.AppTemplate, error) {
	url := fmt.Sprintf("/orchestrator/app/template/%d/%d", appID, chartRefID)
	res := sdk.AppTemplateResponse{}
	if _, err := c.GetJSON(ctx, url, &res); err != nil {
		return nil, err
	}
	return &res.GlobalConfig, nil
}

func (c *client) EnvTemplateGet(ctx context.Context, appID, envID, chartRefID int64) (*sdk.EnvTemplateResponse, error) {
	url := fmt.Sprintf("/orchestrator/app/env/%d/%d/%d", appID, envID, chartRefID)
	res := sdk.EnvTemplateResponse{}
	if _, err := c.GetJSON(ctx, url, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *client) EnvTemplateSave(ctx context.Context, appID int64, req sdk.EnvTemplateSaveRequest) (*sdk.EnvTemplate, error) {
	url := fmt.Sprintf("/orchestrator/app/env/%d", appID)
	res := sdk.EnvTemplate{}
	var err error
	if req.ID != 0 {
		_, err = c.PutJSON(ctx, url, req, &res)
	} else {
		_, err = c.PostJSON(ctx, url, req, &res)
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}
