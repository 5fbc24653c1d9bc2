package shipclient

import (
	"context"
	"encoding/json"

	"github.com/shipyard-ci/shipctl/sdk"
)

func (c *client) CITrigger(ctx context.Context, req sdk.CITriggerRequest) (*sdk.TriggerResponse, error) {
	return c.trigger(ctx, "/orchestrator/app/ci-pipeline/trigger", req)
}

func (c *client) CDTrigger(ctx context.Context, req sdk.CDTriggerRequest) (*sdk.TriggerResponse, error) {
	return c.trigger(ctx, "/orchestrator/app/cd-pipeline/trigger", req)
}

func (c *client) trigger(ctx context.Context, path string, in interface{}) (*sdk.TriggerResponse, error) {
	env, _, err := c.RequestJSON(ctx, "POST", path, in, nil)
	if err != nil {
		return nil, err
	}
	if !env.HasResult() {
		return nil, nil
	}
	var res sdk.TriggerResponse
	// the result shape differs between servers, an undecodable result still means success
	_ = json.Unmarshal(env.Result, &res)
	return &res, nil
}
