package shipclient_test

import (
	"context"
	"testing"

	"github.com/rockbears/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"

	"github.com/shipyard-ci/shipctl/sdk"
	"github.com/shipyard-ci/shipctl/sdk/shipclient"
)

const host = "http://lolcat.host"

func newTestClient(t *testing.T) shipclient.Interface {
	log.Factory = log.NewTestingWrapper(t)
	c := shipclient.New(shipclient.Config{Host: host, Token: "s3cr3t", Retry: 2})
	gock.InterceptClient(c.HTTPClient())
	t.Cleanup(gock.Off)
	return c
}

func TestWorkflowList(t *testing.T) {
	c := newTestClient(t)

	gock.New(host).Get("/orchestrator/app/app-wf/view/12").
		MatchHeader("token", "s3cr3t").
		Reply(200).
		JSON(map[string]interface{}{
			"code":   200,
			"status": "OK",
			"result": sdk.WorkflowsResponse{
				AppID:   12,
				AppName: "backend",
				Workflows: []sdk.WorkflowTree{
					{ID: 1, Name: "wf-1", AppID: 12, Tree: []sdk.WorkflowTreeNode{{Type: sdk.TreeTypeCIPipeline, ComponentID: 3}}},
				},
			},
		})

	res, err := c.WorkflowList(context.TODO(), 12)
	require.NoError(t, err)
	require.Len(t, res.Workflows, 1)
	assert.Equal(t, "backend", res.AppName)
	assert.Equal(t, int64(3), res.Workflows[0].Tree[0].ComponentID)
	assert.True(t, gock.IsDone())
}

func TestCDMaterialListStage(t *testing.T) {
	c := newTestClient(t)

	gock.New(host).Get("/orchestrator/app/cd-pipeline/7/material").
		MatchParam("stage", "PRECD").
		Reply(200).
		JSON(map[string]interface{}{
			"code":   200,
			"result": sdk.CDMaterialsResponse{CIArtifacts: []sdk.Artifact{{ID: 99, Image: "repo/app:abc"}}},
		})

	arts, err := c.CDMaterialList(context.TODO(), 7, sdk.StagePre)
	require.NoError(t, err)
	require.Len(t, arts, 1)
	assert.Equal(t, int64(99), arts[0].ID)
}

func TestTriggerForbidden(t *testing.T) {
	c := newTestClient(t)

	gock.New(host).Post("/orchestrator/app/cd-pipeline/trigger").
		Reply(403).
		JSON(map[string]interface{}{
			"code":   403,
			"status": "Forbidden",
			"errors": []map[string]string{{"userMessage": "forbidden"}},
		})

	res, err := c.CDTrigger(context.TODO(), sdk.CDTriggerRequest{PipelineID: 1, AppID: 2, CIArtifactID: 3})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, sdk.IsForbidden(err))
	assert.Equal(t, "forbidden", sdk.UserMessage(err))
}

func TestTriggerWithoutResult(t *testing.T) {
	c := newTestClient(t)

	gock.New(host).Post("/orchestrator/app/ci-pipeline/trigger").
		Reply(200).
		JSON(map[string]interface{}{"code": 200, "status": "OK"})

	res, err := c.CITrigger(context.TODO(), sdk.CITriggerRequest{PipelineID: 4})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestErrorCodeInEnvelope(t *testing.T) {
	c := newTestClient(t)

	gock.New(host).Get("/orchestrator/app/workflow/status/5").
		Reply(200).
		JSON(map[string]interface{}{
			"code":   404,
			"status": "Not Found",
			"errors": []map[string]string{{"internalMessage": "app not found"}},
		})

	_, err := c.WorkflowStatus(context.TODO(), 5)
	require.Error(t, err)
	assert.True(t, sdk.ErrorIs(err, sdk.ErrNotFound))
	assert.Equal(t, "app not found", sdk.UserMessage(err))
}

func TestRetryIdempotentRequest(t *testing.T) {
	c := newTestClient(t)

	gock.New(host).Get("/orchestrator/app/ci-pipeline/3/material").
		Reply(503)
	gock.New(host).Get("/orchestrator/app/ci-pipeline/3/material").
		Reply(200).
		JSON(map[string]interface{}{
			"code":   200,
			"result": []sdk.CIMaterial{{ID: 1, GitMaterialID: 10, Value: "main"}},
		})

	materials, err := c.CIMaterialList(context.TODO(), 3)
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "main", materials[0].Value)
	assert.True(t, gock.IsDone())
}

func TestRetryDisabled(t *testing.T) {
	log.Factory = log.NewTestingWrapper(t)
	c := shipclient.New(shipclient.Config{Host: host, Retry: 0})
	gock.InterceptClient(c.HTTPClient())
	t.Cleanup(gock.Off)

	gock.New(host).Get("/orchestrator/app/ci-pipeline/3/material").
		Reply(503)
	gock.New(host).Get("/orchestrator/app/ci-pipeline/3/material").
		Reply(200).
		JSON(map[string]interface{}{"code": 200, "result": []sdk.CIMaterial{}})

	_, err := c.CIMaterialList(context.TODO(), 3)
	require.Error(t, err)
	assert.True(t, gock.IsPending())
}

func TestNoRetryOnTrigger(t *testing.T) {
	c := newTestClient(t)

	gock.New(host).Post("/orchestrator/app/ci-pipeline/trigger").
		Reply(503)
	gock.New(host).Post("/orchestrator/app/ci-pipeline/trigger").
		Reply(200).
		JSON(map[string]interface{}{"code": 200, "result": map[string]int{"ciWorkflowId": 1}})

	_, err := c.CITrigger(context.TODO(), sdk.CITriggerRequest{PipelineID: 4})
	require.Error(t, err)
	assert.True(t, gock.IsPending())
}

func TestEnvTemplateSave(t *testing.T) {
	c := newTestClient(t)

	gock.New(host).Put("/orchestrator/app/env/12").
		Reply(200).
		JSON(map[string]interface{}{
			"code":   200,
			"result": sdk.EnvTemplate{ID: 8, EnvironmentID: 3, ChartRefID: 20, IsOverride: true},
		})

	res, err := c.EnvTemplateSave(context.TODO(), 12, sdk.EnvTemplateSaveRequest{ID: 8, EnvironmentID: 3, ChartRefID: 20, IsOverride: true, EnvOverrideValues: []byte(`{"replicaCount":2}`)})
	require.NoError(t, err)
	assert.Equal(t, int64(8), res.ID)
}
