package shipclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shipyard-ci/shipctl/sdk"
)

func (c *client) CIMaterialList(ctx context.Context, ciPipelineID int64) ([]sdk.CIMaterial, error) {
	path := fmt.Sprintf("/orchestrator/app/ci-pipeline/%d/material", ciPipelineID)
	materials := []sdk.CIMaterial{}
	if _, err := c.GetJSON(ctx, path, &materials); err != nil {
		return nil, err
	}
	return materials, nil
}

func (c *client) CIMaterialRefresh(ctx context.Context, gitMaterialID int64) error {
	path := fmt.Sprintf("/orchestrator/app/ci-pipeline/refresh-material/%d", gitMaterialID)
	_, err := c.GetJSON(ctx, path, nil)
	return err
}

func (c *client) CDMaterialList(ctx context.Context, cdPipelineID int64, stage sdk.Stage) ([]sdk.Artifact, error) {
	path := fmt.Sprintf("/orchestrator/app/cd-pipeline/%d/material?stage=%s", cdPipelineID, url.QueryEscape(stage.MaterialStage()))
	res := sdk.CDMaterialsResponse{}
	if _, err := c.GetJSON(ctx, path, &res); err != nil {
		return nil, err
	}
	return res.CIArtifacts, nil
}

func (c *client) CDRollbackMaterialList(ctx context.Context, cdPipelineID int64) ([]sdk.Artifact, error) {
	path := fmt.Sprintf("/orchestrator/app/cd-pipeline/%d/material/rollback", cdPipelineID)
	res := sdk.CDMaterialsResponse{}
	if _, err := c.GetJSON(ctx, path, &res); err != nil {
		return nil, err
	}
	return res.CIArtifacts, nil
}
