package trigger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rockbears/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipyard-ci/shipctl/sdk"
	"github.com/shipyard-ci/shipctl/sdk/shipclient"
	"github.com/shipyard-ci/shipctl/sdk/trigger"
)

// fakeClient serves fixture applications. Methods not overridden panic.
type fakeClient struct {
	shipclient.Interface

	mu               sync.Mutex
	apps             map[int64]trigger.Sources
	status           *sdk.WorkflowStatusResponse
	statusCalls      int
	materialCalls    int
	refreshCalls     int
	ciTriggers       []sdk.CITriggerRequest
	cdTriggers       []sdk.CDTriggerRequest
	ciTriggerResult  *sdk.TriggerResponse
	cdTriggerFn      func(req sdk.CDTriggerRequest) (*sdk.TriggerResponse, error)
	ciMaterialsBlock chan struct{}
}

func newFakeClient(apps ...trigger.Sources) *fakeClient {
	c := &fakeClient{
		apps:            map[int64]trigger.Sources{},
		status:          &sdk.WorkflowStatusResponse{},
		ciTriggerResult: &sdk.TriggerResponse{CIWorkflowID: 1},
	}
	for _, a := range apps {
		c.apps[a.Workflows.AppID] = a
	}
	return c
}

func (c *fakeClient) app(appID int64) (trigger.Sources, error) {
	a, has := c.apps[appID]
	if !has {
		return a, &sdk.APIError{Code: 404}
	}
	return a, nil
}

func (c *fakeClient) WorkflowList(_ context.Context, appID int64) (*sdk.WorkflowsResponse, error) {
	a, err := c.app(appID)
	return a.Workflows, err
}

func (c *fakeClient) CIPipelineList(_ context.Context, appID int64) (*sdk.CIPipelinesResponse, error) {
	a, err := c.app(appID)
	return a.CIPipelines, err
}

func (c *fakeClient) CDPipelineList(_ context.Context, appID int64) (*sdk.CDPipelinesResponse, error) {
	a, err := c.app(appID)
	return a.CDPipelines, err
}

func (c *fakeClient) AppMaterialList(_ context.Context, appID int64) (*sdk.AppMaterialsResponse, error) {
	a, err := c.app(appID)
	return a.Materials, err
}

func (c *fakeClient) WorkflowStatus(_ context.Context, appID int64) (*sdk.WorkflowStatusResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusCalls++
	return c.status, nil
}

func (c *fakeClient) CIMaterialList(ctx context.Context, ciPipelineID int64) ([]sdk.CIMaterial, error) {
	c.mu.Lock()
	c.materialCalls++
	block := c.ciMaterialsBlock
	c.mu.Unlock()
	if block != nil {
		close(block)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	base := ciPipelineID - 3
	return []sdk.CIMaterial{{
		ID:              base + 31,
		GitMaterialID:   base + 10,
		GitMaterialName: "backend-repo",
		Type:            sdk.SourceTypeBranchFixed,
		Value:           "main",
		History:         []sdk.CommitHistory{{Commit: "c1"}, {Commit: "c2"}},
	}}, nil
}

func (c *fakeClient) CIMaterialRefresh(_ context.Context, _ int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshCalls++
	return nil
}

func (c *fakeClient) CDMaterialList(_ context.Context, cdPipelineID int64, _ sdk.Stage) ([]sdk.Artifact, error) {
	return []sdk.Artifact{{ID: cdPipelineID * 10, Image: "registry/app:1"}, {ID: cdPipelineID*10 + 1, Image: "registry/app:0"}}, nil
}

func (c *fakeClient) CDRollbackMaterialList(_ context.Context, cdPipelineID int64) ([]sdk.Artifact, error) {
	return []sdk.Artifact{{ID: cdPipelineID*10 + 5, WfrID: 55}}, nil
}

func (c *fakeClient) CITrigger(_ context.Context, req sdk.CITriggerRequest) (*sdk.TriggerResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ciTriggers = append(c.ciTriggers, req)
	return c.ciTriggerResult, nil
}

func (c *fakeClient) CDTrigger(_ context.Context, req sdk.CDTriggerRequest) (*sdk.TriggerResponse, error) {
	c.mu.Lock()
	c.cdTriggers = append(c.cdTriggers, req)
	fn := c.cdTriggerFn
	c.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return &sdk.TriggerResponse{WorkflowID: 1}, nil
}

func newTestSession(t *testing.T, c *fakeClient, appIDs ...int64) (*trigger.Session, *recordNotifier) {
	log.Factory = log.NewTestingWrapper(t)
	n := &recordNotifier{}
	s := trigger.NewSession(context.TODO(), c, trigger.WithClock(clockwork.NewFakeClock()), trigger.WithNotifier(n))
	t.Cleanup(s.Close)
	require.NoError(t, s.Load(context.TODO(), appIDs...))
	return s, n
}

func TestSessionLoad(t *testing.T) {
	c := newFakeClient(fixtureSources())
	c.status = fixtureStatus()
	s, _ := newTestSession(t, c, 12)

	wfs := s.Workflows()
	require.Len(t, wfs, 1)
	assert.Equal(t, "wf-backend", wfs[0].Name)
	assert.Equal(t, []sdk.NodeKey{key(sdk.NodeTypeCD, 7), key(sdk.NodeTypeCI, 3)}, s.InProgressKeys())
	assert.True(t, s.Poller().InProgress())
	assert.Equal(t, trigger.InProgressInterval, s.Poller().Next())

	// copies are returned
	wfs[0].Nodes[0].Title = "changed"
	n, err := s.Node(key(sdk.NodeTypeGit, 31))
	require.NoError(t, err)
	assert.Equal(t, "backend-repo", n.Title)

	s.Close()
	assert.False(t, s.Poller().Pending())
	assert.Error(t, s.Load(context.TODO(), 12))
}

func TestSessionLoadUnknownApp(t *testing.T) {
	log.Factory = log.NewTestingWrapper(t)
	n := &recordNotifier{}
	s := trigger.NewSession(context.TODO(), newFakeClient(), trigger.WithClock(clockwork.NewFakeClock()), trigger.WithNotifier(n))
	defer s.Close()
	require.Error(t, s.Load(context.TODO(), 42))
	_, errs := n.counts()
	assert.Equal(t, 1, errs)
}

func TestSessionTriggerCI(t *testing.T) {
	c := newFakeClient(fixtureSources())
	s, n := newTestSession(t, c, 12)
	ci := key(sdk.NodeTypeCI, 3)

	require.NoError(t, s.Open(trigger.ModeCI{Node: ci}))
	require.NoError(t, s.FetchMaterials(context.TODO(), ci, false))
	require.NoError(t, s.SelectCommit(ci, 31, "c2"))
	polls := s.Poller().Polls()

	res, err := s.TriggerCI(context.TODO(), ci, true)
	require.NoError(t, err)
	require.NotNil(t, res)

	require.Len(t, c.ciTriggers, 1)
	req := c.ciTriggers[0]
	assert.Equal(t, int64(3), req.PipelineID)
	assert.True(t, req.InvalidateCache)
	assert.Equal(t, []sdk.CITriggerMaterial{{ID: 31, GitCommit: sdk.GitCommit{Commit: "c2"}}}, req.CIPipelineMaterials)

	assert.Equal(t, trigger.ModeClosed{}, s.Mode())
	assert.Equal(t, polls+1, s.Poller().Polls())
	successes, _ := n.counts()
	assert.Equal(t, 1, successes)
}

func TestSessionTriggerCIWithoutResult(t *testing.T) {
	c := newFakeClient(fixtureSources())
	c.ciTriggerResult = nil
	s, n := newTestSession(t, c, 12)
	ci := key(sdk.NodeTypeCI, 3)

	require.NoError(t, s.Open(trigger.ModeCI{Node: ci}))
	require.NoError(t, s.FetchMaterials(context.TODO(), ci, false))
	polls := s.Poller().Polls()

	res, err := s.TriggerCI(context.TODO(), ci, false)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, trigger.ModeCI{Node: ci}, s.Mode())
	assert.Equal(t, polls, s.Poller().Polls())
	successes, errs := n.counts()
	assert.Equal(t, 0, successes)
	assert.Equal(t, 0, errs)
}

func TestSessionTriggerCIDockerfileSourceNotConfigured(t *testing.T) {
	src := fixtureSources()
	src.CIPipelines.CIPipelines[0].CIMaterials[0].Source.Value = sdk.UnsetBranchValue
	c := newFakeClient(src)
	s, n := newTestSession(t, c, 12)

	_, err := s.TriggerCI(context.TODO(), key(sdk.NodeTypeCI, 3), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend-repo")
	assert.Empty(t, c.ciTriggers)
	_, errs := n.counts()
	assert.Equal(t, 1, errs)
}

func TestSessionTriggerCD(t *testing.T) {
	c := newFakeClient(fixtureSources())
	s, _ := newTestSession(t, c, 12)
	cd := key(sdk.NodeTypeCD, 7)

	_, err := s.TriggerCD(context.TODO(), cd, sdk.MaterialKindInput)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "artifact id")
	assert.Empty(t, c.cdTriggers)

	require.NoError(t, s.Open(trigger.ModeCD{Node: cd}))
	assert.Equal(t, trigger.ModeCD{Node: cd, Kind: sdk.MaterialKindInput}, s.Mode())
	require.NoError(t, s.FetchArtifacts(context.TODO(), cd, sdk.MaterialKindInput))
	require.NoError(t, s.SelectImage(cd, 1, sdk.MaterialKindInput))

	_, err = s.TriggerCD(context.TODO(), cd, sdk.MaterialKindInput)
	require.NoError(t, err)
	require.Len(t, c.cdTriggers, 1)
	assert.Equal(t, sdk.CDTriggerRequest{PipelineID: 7, AppID: 12, CIArtifactID: 71, CDWorkflowType: sdk.StageDeploy}, c.cdTriggers[0])
	assert.Equal(t, trigger.ModeClosed{}, s.Mode())
}

func TestSessionRollback(t *testing.T) {
	c := newFakeClient(fixtureSources())
	s, _ := newTestSession(t, c, 12)
	cd := key(sdk.NodeTypeCD, 8)

	require.NoError(t, s.FetchArtifacts(context.TODO(), cd, sdk.MaterialKindRollback))
	_, err := s.TriggerCD(context.TODO(), cd, sdk.MaterialKindRollback)
	require.NoError(t, err)
	require.Len(t, c.cdTriggers, 1)
	assert.Equal(t, int64(85), c.cdTriggers[0].CIArtifactID)
	assert.Equal(t, int64(55), c.cdTriggers[0].WfrIDForDeploymentWithSpecificTrigger)
}

func TestSessionBulkCD(t *testing.T) {
	c := newFakeClient(fixtureApp(1, "one", 100), fixtureApp(2, "two", 200), fixtureApp(3, "three", 300))
	c.cdTriggerFn = func(req sdk.CDTriggerRequest) (*sdk.TriggerResponse, error) {
		if req.AppID == 2 {
			return nil, &sdk.APIError{Code: 403, Errors: []sdk.APIErrorItem{{UserMessage: "forbidden"}}}
		}
		return &sdk.TriggerResponse{}, nil
	}
	s, _ := newTestSession(t, c, 1, 2, 3)

	_, err := s.BulkCD(context.TODO(), 1, sdk.StageDeploy)
	assert.True(t, sdk.ErrorIs(err, sdk.ErrNoSelectedWorkflow))

	for _, id := range []int64{101, 201, 301} {
		require.NoError(t, s.SetSelected(id, true))
	}
	require.NoError(t, s.Open(trigger.ModeBulkCD{EnvironmentID: 1, Stage: sdk.StageDeploy}))

	rows, err := s.BulkCD(context.TODO(), 1, sdk.StageDeploy)
	require.NoError(t, err)
	assert.Equal(t, []sdk.ResponseRow{
		{AppID: 1, AppName: "one", Status: sdk.BulkStatusPass, Message: "Pipeline triggered"},
		{AppID: 2, AppName: "two", Status: sdk.BulkStatusUnauthorize, Message: "forbidden"},
		{AppID: 3, AppName: "three", Status: sdk.BulkStatusPass, Message: "Pipeline triggered"},
	}, rows)
	assert.Equal(t, rows, s.BulkRows())
	for _, req := range c.cdTriggers {
		assert.Equal(t, req.PipelineID*10, req.CIArtifactID)
	}

	s.CloseMode()
	assert.Empty(t, s.BulkRows())
}

func TestSessionBulkCI(t *testing.T) {
	c := newFakeClient(fixtureApp(1, "one", 100), fixtureApp(2, "two", 200))
	s, _ := newTestSession(t, c, 1, 2)
	require.NoError(t, s.SetSelected(201, true))

	rows, err := s.BulkCI(context.TODO())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, sdk.BulkStatusPass, rows[0].Status)
	require.Len(t, c.ciTriggers, 1)
	assert.Equal(t, int64(203), c.ciTriggers[0].PipelineID)
	assert.Equal(t, "c1", c.ciTriggers[0].CIPipelineMaterials[0].GitCommit.Commit)
}

func TestSessionFetchMaterialsCache(t *testing.T) {
	c := newFakeClient(fixtureSources())
	s, _ := newTestSession(t, c, 12)
	ci := key(sdk.NodeTypeCI, 3)

	require.NoError(t, s.FetchMaterials(context.TODO(), ci, false))
	require.NoError(t, s.FetchMaterials(context.TODO(), ci, false))
	assert.Equal(t, 1, c.materialCalls)

	require.NoError(t, s.FetchMaterials(context.TODO(), ci, true))
	assert.Equal(t, 2, c.materialCalls)
	assert.Equal(t, 1, c.refreshCalls)

	n, err := s.Node(ci)
	require.NoError(t, err)
	require.Len(t, n.InputMaterialList, 2)
	assert.Len(t, n.InputMaterialList[0].History, 2)
	assert.True(t, n.InputMaterialList[0].Selected)
	assert.Equal(t, sdk.UnsetBranchValue, n.InputMaterialList[1].Value)
}

func TestSessionCloseModeAbortsFetch(t *testing.T) {
	c := newFakeClient(fixtureSources())
	s, n := newTestSession(t, c, 12)
	ci := key(sdk.NodeTypeCI, 3)

	started := make(chan struct{})
	c.mu.Lock()
	c.ciMaterialsBlock = started
	c.mu.Unlock()

	require.NoError(t, s.Open(trigger.ModeCI{Node: ci}))
	done := make(chan error, 1)
	go func() { done <- s.FetchMaterials(context.TODO(), ci, false) }()
	<-started
	node, err := s.Node(ci)
	require.NoError(t, err)
	for _, m := range node.InputMaterialList {
		assert.True(t, m.Loading, "material %d", m.ID)
	}
	s.CloseMode()

	select {
	case err := <-done:
		assert.True(t, sdk.ErrorIs(err, sdk.ErrRequestAborted))
	case <-time.After(time.Second):
		t.Fatal("fetch was not aborted")
	}
	_, errs := n.counts()
	assert.Equal(t, 0, errs)

	node, err = s.Node(ci)
	require.NoError(t, err)
	require.NotEmpty(t, node.InputMaterialList)
	for _, m := range node.InputMaterialList {
		assert.False(t, m.Loading, "material %d", m.ID)
		assert.False(t, m.IsRepoError, "material %d", m.ID)
	}
}

func TestSessionModes(t *testing.T) {
	src := fixtureSources()
	src.CIPipelines.CIPipelines[0].CIMaterials[0].Source = sdk.MaterialSource{Type: sdk.SourceTypeBranchRegex, Regex: "^feature/.+"}
	c := newFakeClient(src)
	s, _ := newTestSession(t, c, 12)
	ci := key(sdk.NodeTypeCI, 3)

	assert.Error(t, s.Open(trigger.ModeCD{Node: ci}))
	assert.Error(t, s.Open(trigger.ModeCI{Node: key(sdk.NodeTypeCI, 404)}))
	assert.True(t, sdk.ErrorIs(s.Open(trigger.ModeBulkCI{}), sdk.ErrNoSelectedWorkflow))
	assert.Equal(t, trigger.ModeClosed{}, s.Mode())

	assert.Error(t, s.SetBranch(ci, 31, "feature/x"))
	require.NoError(t, s.Open(trigger.ModeRegex{Node: ci}))
	assert.Error(t, s.SetBranch(ci, 31, "main"))
	require.NoError(t, s.SetBranch(ci, 31, "feature/login"))

	n, err := s.Node(ci)
	require.NoError(t, err)
	assert.Equal(t, "feature/login", n.InputMaterialList[0].Value)
}
