package deploytemplate_test

import (
	"context"
	"testing"

	"github.com/rockbears/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"

	"github.com/shipyard-ci/shipctl/sdk"
	"github.com/shipyard-ci/shipctl/sdk/deploytemplate"
	"github.com/shipyard-ci/shipctl/sdk/shipclient"
)

const host = "http://lolcat.host"

const schema = `{
  "type": "object",
  "properties": {
    "replicaCount": {"type": "integer", "minimum": 1}
  },
  "required": ["replicaCount"]
}`

func TestOverride(t *testing.T) {
	base := []byte("replicaCount: 1\nimage:\n  tag: v1\n  pullPolicy: Always\n")
	override := []byte("image:\n  tag: v2\n  pullPolicy: null\n")

	res, err := deploytemplate.Override(base, override)
	require.NoError(t, err)
	assert.JSONEq(t, `{"replicaCount":1,"image":{"tag":"v2"}}`, string(res))

	res, err = deploytemplate.Override(base, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"replicaCount":1,"image":{"tag":"v1","pullPolicy":"Always"}}`, string(res))

	_, err = deploytemplate.Override(base, []byte("image: [unclosed"))
	assert.True(t, sdk.ErrorIs(err, sdk.ErrInvalidTemplate))
}

func TestDiff(t *testing.T) {
	diff, err := deploytemplate.Diff([]byte(`{"a":1,"b":{"c":2}}`), []byte("a: 1\nb:\n  c: 3\nd: true\n"))
	require.NoError(t, err)
	assert.Equal(t, "b:\n  c: 3\nd: true\n", string(diff))

	diff, err = deploytemplate.Diff([]byte(`{"a":1}`), []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(diff))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, deploytemplate.Validate([]byte(schema), []byte("replicaCount: 2")))
	assert.NoError(t, deploytemplate.Validate(nil, []byte("anything: goes")))

	err := deploytemplate.Validate([]byte(schema), []byte("replicaCount: 0"))
	require.Error(t, err)
	assert.True(t, sdk.ErrorIs(err, sdk.ErrInvalidTemplate))
	assert.Contains(t, err.Error(), "replicaCount")

	err = deploytemplate.Validate([]byte(schema), []byte("image: nginx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replicaCount")
}

func TestSortAndLatest(t *testing.T) {
	refs := []sdk.ChartRef{
		{ID: 1, Name: "reference-chart", Version: "3.9.0"},
		{ID: 2, Name: "reference-chart", Version: "4.10.0"},
		{ID: 3, Name: "reference-chart", Version: "4.2.0"},
		{ID: 4, Name: "deployment-chart", Version: "1.0.0"},
		{ID: 5, Name: "reference-chart", Version: "latest"},
	}

	latest, err := deploytemplate.Latest(refs, "reference-chart")
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest.ID)

	_, err = deploytemplate.Latest(refs, "unknown")
	assert.True(t, sdk.ErrorIs(err, sdk.ErrNotFound))

	matching, err := deploytemplate.Matching(refs, ">= 4.0")
	require.NoError(t, err)
	require.Len(t, matching, 2)
	assert.Equal(t, int64(2), matching[0].ID)
	assert.Equal(t, int64(3), matching[1].ID)

	_, err = deploytemplate.Matching(refs, "not a constraint")
	assert.Error(t, err)

	deploytemplate.Sort(refs)
	var ids []int64
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{4, 2, 3, 1, 5}, ids)

	found, err := deploytemplate.Find(refs, 3)
	require.NoError(t, err)
	assert.Equal(t, "4.2.0", found.Version)
}

func newTestClient(t *testing.T) shipclient.Interface {
	log.Factory = log.NewTestingWrapper(t)
	c := shipclient.New(shipclient.Config{Host: host, Token: "s3cr3t"})
	gock.InterceptClient(c.HTTPClient())
	t.Cleanup(gock.Off)
	return c
}

func mockEnvTemplate() {
	gock.New(host).Get("/orchestrator/chartref/autocomplete/12").
		Reply(200).
		JSON(map[string]interface{}{
			"code": 200,
			"result": sdk.ChartRefsResponse{
				ChartRefs:         []sdk.ChartRef{{ID: 20, Name: "reference-chart", Version: "4.10.0"}},
				LatestAppChartRef: 20,
			},
		})
	gock.New(host).Get("/orchestrator/app/env/12/3/20").
		Reply(200).
		JSON(map[string]interface{}{
			"code": 200,
			"result": map[string]interface{}{
				"environmentConfig": map[string]interface{}{"id": 8, "environmentId": 3, "chartRefId": 20},
				"globalConfig":      map[string]interface{}{"replicaCount": 1, "image": map[string]string{"tag": "v1"}},
				"schema":            map[string]interface{}{"type": "object", "properties": map[string]interface{}{"replicaCount": map[string]string{"type": "integer"}}},
				"namespace":         "staging",
			},
		})
}

func TestApply(t *testing.T) {
	c := newTestClient(t)
	mockEnvTemplate()
	gock.New(host).Put("/orchestrator/app/env/12").
		BodyString(`"envOverrideValues":\{"image":\{"tag":"v2"\},"replicaCount":1\}`).
		Reply(200).
		JSON(map[string]interface{}{
			"code":   200,
			"result": sdk.EnvTemplate{ID: 8, EnvironmentID: 3, ChartRefID: 20, IsOverride: true, Namespace: "staging"},
		})

	res, err := deploytemplate.Apply(context.TODO(), c, 12, 3, 0, []byte("image:\n  tag: v2\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), res.ID)
	assert.True(t, res.IsOverride)
	assert.True(t, gock.IsDone())
}

func TestApplyInvalidValues(t *testing.T) {
	c := newTestClient(t)
	mockEnvTemplate()

	_, err := deploytemplate.Apply(context.TODO(), c, 12, 3, 0, []byte("replicaCount: many\n"))
	require.Error(t, err)
	assert.True(t, sdk.ErrorIs(err, sdk.ErrInvalidTemplate))
	assert.True(t, gock.IsDone())
}

func TestEffective(t *testing.T) {
	tmpl := &sdk.EnvTemplateResponse{GlobalConfig: []byte(`{"a":1}`)}
	assert.Equal(t, `{"a":1}`, string(deploytemplate.Effective(tmpl)))
	tmpl.EnvironmentConfig = sdk.EnvTemplate{IsOverride: true, EnvOverrideValues: []byte(`{"a":2}`)}
	assert.Equal(t, `{"a":2}`, string(deploytemplate.Effective(tmpl)))
}
