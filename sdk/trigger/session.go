package trigger

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rockbears/log"
	"golang.org/x/sync/errgroup"

	"github.com/shipyard-ci/shipctl/sdk"
	shiplog "github.com/shipyard-ci/shipctl/sdk/log"
	"github.com/shipyard-ci/shipctl/sdk/shipclient"
)

// Option configures a session.
type Option func(s *Session)

// WithClock sets the clock of the status poller.
func WithClock(c clockwork.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithNotifier sets the notifier of the session.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithBulkConcurrency sets the number of concurrent calls of a bulk trigger.
func WithBulkConcurrency(n int) Option {
	return func(s *Session) { s.bulkLimit = n }
}

// Session holds the workflows of a set of applications and everything
// needed to trigger them. It lives from NewSession to Close.
type Session struct {
	client    shipclient.Interface
	notifier  Notifier
	clock     clockwork.Clock
	bulkLimit int

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.RWMutex
	closed       bool
	apps         []int64
	graph        *Graph
	appMaterials map[int64][]sdk.GitMaterial
	mode         Mode
	bulkRows     []sdk.ResponseRow
	loading      map[sdk.NodeKey]uint64

	slots  map[string]*Slot
	cache  *materialCache
	poller *Poller
}

// NewSession returns an empty session. Call Load to fetch workflows.
func NewSession(ctx context.Context, client shipclient.Interface, opts ...Option) *Session {
	s := &Session{
		client:       client,
		notifier:     LogNotifier{},
		bulkLimit:    DefaultBulkConcurrency,
		graph:        NewGraph(nil),
		appMaterials: map[int64][]sdk.GitMaterial{},
		mode:         ModeClosed{},
		loading:      map[sdk.NodeKey]uint64{},
		slots: map[string]*Slot{
			SlotWorkflows:  NewSlot(SlotWorkflows),
			SlotCIMaterial: NewSlot(SlotCIMaterial),
			SlotCDMaterial: NewSlot(SlotCDMaterial),
		},
		cache: newMaterialCache(),
	}
	for _, o := range opts {
		o(s)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.poller = NewPoller(s.ctx, s.clock, s.fetchStatus, s.applyStatus, s.notifier)
	return s
}

// Poller returns the status poller of the session.
func (s *Session) Poller() *Poller {
	return s.poller
}

// Load fetches the workflows of the applications, replaces the graph and polls the status.
func (s *Session) Load(ctx context.Context, appIDs ...int64) error {
	if s.isClosed() {
		return sdk.WithStack(sdk.ErrRequestAborted)
	}
	slot := s.slots[SlotWorkflows]
	reqCtx, token := slot.Begin(ctx)
	defer slot.End(token)

	sources := make([]Sources, len(appIDs))
	g, gctx := errgroup.WithContext(reqCtx)
	for i := range appIDs {
		i := i
		g.Go(func() error {
			var err error
			sources[i], err = FetchSources(context.WithValue(gctx, shiplog.AppID, appIDs[i]), s.client, appIDs[i])
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return s.failure(ctx, reqCtx, "Unable to load workflows", err)
	}

	var workflows []sdk.Workflow
	appMaterials := make(map[int64][]sdk.GitMaterial, len(appIDs))
	for i, src := range sources {
		workflows = append(workflows, BuildWorkflows(src)...)
		if src.Materials != nil {
			appMaterials[appIDs[i]] = src.Materials.Materials
		}
	}
	stackWorkflows(workflows)

	s.mu.Lock()
	if !slot.IsLatest(token) {
		s.mu.Unlock()
		return sdk.WithStack(sdk.ErrRequestAborted)
	}
	s.apps = append([]int64(nil), appIDs...)
	s.graph = NewGraph(workflows)
	s.appMaterials = appMaterials
	s.mu.Unlock()
	s.cache.flush()

	log.Info(ctx, "%d workflows loaded for %d applications", len(workflows), len(appIDs))
	_, _ = s.poller.Poll(ctx)
	return nil
}

// stackWorkflows places workflows of several applications one below the other.
func stackWorkflows(ws []sdk.Workflow) {
	y := 0
	for i := range ws {
		ws[i].Y = y
		y += ws[i].Height + WorkflowGap
	}
}

func (s *Session) fetchStatus(ctx context.Context) (*sdk.WorkflowStatusResponse, error) {
	s.mu.RLock()
	apps := append([]int64(nil), s.apps...)
	s.mu.RUnlock()

	res := make([]*sdk.WorkflowStatusResponse, len(apps))
	g, ctx := errgroup.WithContext(ctx)
	for i := range apps {
		i := i
		g.Go(func() error {
			var err error
			res[i], err = s.client.WorkflowStatus(ctx, apps[i])
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return MergeStatusResponses(res...), nil
}

func (s *Session) applyStatus(st *sdk.WorkflowStatusResponse) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MergeStatus(s.graph, st)
}

// Close stops the poller and aborts every pending request.
func (s *Session) Close() {
	s.poller.Stop()
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, slot := range s.slots {
		slot.Abort()
	}
	s.mode = ModeClosed{}
	s.bulkRows = nil
	s.cache.flush()
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// failure notifies err unless the request was aborted.
func (s *Session) failure(ctx, reqCtx context.Context, title string, err error) error {
	if reqCtx.Err() != nil {
		log.Debug(ctx, "%s: request aborted: %v", title, err)
		return sdk.NewError(sdk.ErrRequestAborted, err)
	}
	s.notifier.Error(ctx, title, sdk.UserMessage(err))
	return err
}

// Workflows returns a copy of the workflows.
func (s *Session) Workflows() []sdk.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Snapshot()
}

// Workflow returns a copy of a workflow.
func (s *Session) Workflow(id int64) (sdk.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w := s.graph.Workflow(id)
	if w == nil {
		return sdk.Workflow{}, sdk.NewErrorFrom(sdk.ErrNotFound, "workflow %d not found", id)
	}
	return cloneWorkflow(*w), nil
}

// Node returns a copy of a node.
func (s *Session) Node(k sdk.NodeKey) (sdk.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.graph.Node(k)
	if n == nil {
		return sdk.Node{}, sdk.NewErrorFrom(sdk.ErrNodeNotFound, "%s", k)
	}
	return cloneNode(*n), nil
}

// InProgressKeys returns the keys of the nodes in flight.
func (s *Session) InProgressKeys() []sdk.NodeKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.InProgressKeys()
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Open replaces the current mode, aborting the request of the previous one.
func (s *Session) Open(m Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m == nil {
		m = ModeClosed{}
	}

	switch mode := m.(type) {
	case ModeCI:
		if err := s.expectNode(mode.Node, sdk.NodeTypeCI); err != nil {
			return err
		}
	case ModeRegex:
		if err := s.expectNode(mode.Node, sdk.NodeTypeCI); err != nil {
			return err
		}
		if !s.graph.Node(mode.Node).BranchRegex {
			return sdk.NewErrorFrom(sdk.ErrInvalidModeTransition, "%s has no regex material", mode.Node)
		}
	case ModeCD:
		n := s.graph.Node(mode.Node)
		if n == nil || !mode.Node.Type.IsCDFamily() {
			return sdk.NewErrorFrom(sdk.ErrNodeNotFound, "%s is not a deployment node", mode.Node)
		}
		if mode.Kind == "" {
			mode.Kind = sdk.MaterialKindInput
			m = mode
		}
	case ModeBulkCI, ModeBulkCD:
		if len(s.selected()) == 0 {
			return sdk.WithStack(sdk.ErrNoSelectedWorkflow)
		}
	}

	s.abortMode()
	s.mode = m
	s.bulkRows = nil
	return nil
}

// CloseMode returns to the idle mode.
func (s *Session) CloseMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abortMode()
	s.mode = ModeClosed{}
	s.bulkRows = nil
}

// abortMode must be called with the lock held.
func (s *Session) abortMode() {
	if name := s.mode.slot(); name != "" {
		s.slots[name].Abort()
	}
}

// expectNode must be called with the lock held.
func (s *Session) expectNode(k sdk.NodeKey, t sdk.NodeType) error {
	if k.Type != t || s.graph.Node(k) == nil {
		return sdk.NewErrorFrom(sdk.ErrNodeNotFound, "%s is not a %s node", k, t)
	}
	return nil
}

func (s *Session) update(k sdk.NodeKey, fn func(n *sdk.Node) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.graph.Node(k)
	if n == nil {
		return sdk.NewErrorFrom(sdk.ErrNodeNotFound, "%s", k)
	}
	return fn(n)
}

// SelectCommit selects a commit of a material of a CI node.
func (s *Session) SelectCommit(k sdk.NodeKey, materialID int64, ref string) error {
	return s.update(k, func(n *sdk.Node) error { return SelectCommit(n, materialID, ref) })
}

// SelectMaterial selects a material of a CI node.
func (s *Session) SelectMaterial(k sdk.NodeKey, materialID int64) error {
	return s.update(k, func(n *sdk.Node) error { return SelectMaterial(n, materialID) })
}

// SelectImage selects an artifact of a CD family node.
func (s *Session) SelectImage(k sdk.NodeKey, index int, kind sdk.MaterialKind) error {
	return s.update(k, func(n *sdk.Node) error { return SelectImage(n, index, kind) })
}

// ToggleChanges flips the display of the changes of a commit.
func (s *Session) ToggleChanges(k sdk.NodeKey, materialID int64, ref string) error {
	return s.update(k, func(n *sdk.Node) error { return ToggleChanges(n, materialID, ref) })
}

// SetBranch sets the branch of a regex material. The regex mode must be open on the node.
func (s *Session) SetBranch(k sdk.NodeKey, materialID int64, branch string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.mode.(ModeRegex); !ok || m.Node != k {
		return sdk.NewErrorFrom(sdk.ErrInvalidModeTransition, "regex mode is not open on %s", k)
	}
	n := s.graph.Node(k)
	if n == nil {
		return sdk.NewErrorFrom(sdk.ErrNodeNotFound, "%s", k)
	}
	mat := material(n, materialID)
	if mat == nil || mat.Type != sdk.SourceTypeBranchRegex {
		return sdk.NewErrorFrom(sdk.ErrNotFound, "no regex material %d on %s", materialID, k)
	}
	re, err := regexp.Compile(mat.Regex)
	if err != nil {
		return sdk.NewErrorFrom(sdk.ErrInvalidData, "invalid regex %q: %v", mat.Regex, err)
	}
	if !re.MatchString(branch) {
		return sdk.NewErrorFrom(sdk.ErrInvalidData, "branch %q does not match %s", branch, mat.Regex)
	}
	mat.Value = branch
	mat.IsBranchError = false
	mat.BranchErrorMsg = ""
	s.cache.invalidate(k.ID)
	return nil
}

// SetSelected marks a workflow for the bulk triggers.
func (s *Session) SetSelected(workflowID int64, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.graph.Workflow(workflowID)
	if w == nil {
		return sdk.NewErrorFrom(sdk.ErrNotFound, "workflow %d not found", workflowID)
	}
	w.Selected = selected
	return nil
}

// SelectedWorkflows returns a copy of the workflows marked for the bulk triggers.
func (s *Session) SelectedWorkflows() []sdk.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected()
}

// selected must be called with the lock held.
func (s *Session) selected() []sdk.Workflow {
	var res []sdk.Workflow
	s.graph.Each(func(w *sdk.Workflow) {
		if w.Selected {
			res = append(res, cloneWorkflow(*w))
		}
	})
	return res
}

// BulkRows returns the result of the last bulk trigger of the current mode.
func (s *Session) BulkRows() []sdk.ResponseRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]sdk.ResponseRow(nil), s.bulkRows...)
}

// FetchMaterials loads the commit history of the materials of a CI node.
// With refresh, the git repositories are fetched again by the server first.
func (s *Session) FetchMaterials(ctx context.Context, k sdk.NodeKey, refresh bool) error {
	s.mu.RLock()
	if err := s.expectNode(k, sdk.NodeTypeCI); err != nil {
		s.mu.RUnlock()
		return err
	}
	appID := s.graph.WorkflowOf(k).AppID
	var gitMaterialIDs []int64
	for _, m := range s.graph.Node(k).InputMaterialList {
		if m.IsSourceConfigured() {
			gitMaterialIDs = append(gitMaterialIDs, m.GitMaterialID)
		}
	}
	s.mu.RUnlock()

	ctx = context.WithValue(ctx, shiplog.Node, k.String())
	slot := s.slots[SlotCIMaterial]
	reqCtx, token := slot.Begin(ctx)
	defer slot.End(token)
	s.beginLoading(k, token)
	defer s.endLoading(k, token)

	if refresh {
		for _, id := range gitMaterialIDs {
			if err := s.client.CIMaterialRefresh(reqCtx, id); err != nil {
				s.setMaterialError(k, token, err)
				return s.failure(ctx, reqCtx, "Unable to refresh materials", err)
			}
		}
		s.cache.invalidate(k.ID)
	}

	materials, cached := s.cache.get(k.ID)
	if !cached {
		var err error
		materials, err = s.client.CIMaterialList(reqCtx, k.ID)
		if err != nil {
			s.setMaterialError(k, token, err)
			return s.failure(ctx, reqCtx, "Unable to fetch materials", err)
		}
		s.cache.set(k.ID, materials)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !slot.IsLatest(token) {
		return sdk.WithStack(sdk.ErrRequestAborted)
	}
	n := s.graph.Node(k)
	if n == nil {
		return sdk.NewErrorFrom(sdk.ErrNodeNotFound, "%s", k)
	}
	var selectedID int64
	if m := n.SelectedMaterial(); m != nil {
		selectedID = m.ID
	}
	for i := range materials {
		if materials[i].GitMaterialName == "" {
			materials[i].GitMaterialName = MaterialDisplayName("", materials[i].GitURL)
		}
	}
	materials = WithPlaceholders(materials, s.appMaterials[appID])
	ensureSelection(materials, selectedID)
	n.InputMaterialList = materials
	log.Debug(ctx, "%d materials loaded (cached=%t)", len(materials), cached)
	return nil
}

func (s *Session) beginLoading(k sdk.NodeKey, token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading[k] = token
	s.setLoading(k, true)
}

// endLoading clears the loading flags of the node, even if the request was
// aborted, unless a later fetch of the same node owns them.
func (s *Session) endLoading(k sdk.NodeKey, token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading[k] != token {
		return
	}
	delete(s.loading, k)
	s.setLoading(k, false)
}

// setLoading must be called with the lock held.
func (s *Session) setLoading(k sdk.NodeKey, loading bool) {
	n := s.graph.Node(k)
	if n == nil {
		return
	}
	for i := range n.InputMaterialList {
		n.InputMaterialList[i].Loading = loading
	}
}

func (s *Session) setMaterialError(k sdk.NodeKey, token uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.slots[SlotCIMaterial].IsLatest(token) {
		return
	}
	n := s.graph.Node(k)
	if n == nil {
		return
	}
	for i := range n.InputMaterialList {
		m := &n.InputMaterialList[i]
		if m.IsSourceConfigured() {
			m.IsRepoError = true
			m.RepoErrorMsg = sdk.UserMessage(err)
		}
	}
}

// FetchArtifacts loads the artifact candidates of a CD family node.
func (s *Session) FetchArtifacts(ctx context.Context, k sdk.NodeKey, kind sdk.MaterialKind) error {
	s.mu.RLock()
	if s.graph.Node(k) == nil || !k.Type.IsCDFamily() {
		s.mu.RUnlock()
		return sdk.NewErrorFrom(sdk.ErrNodeNotFound, "%s is not a deployment node", k)
	}
	s.mu.RUnlock()

	ctx = context.WithValue(ctx, shiplog.Node, k.String())
	slot := s.slots[SlotCDMaterial]
	reqCtx, token := slot.Begin(ctx)
	defer slot.End(token)

	var list []sdk.Artifact
	var err error
	if kind == sdk.MaterialKindRollback {
		list, err = s.client.CDRollbackMaterialList(reqCtx, k.ID)
	} else {
		list, err = s.client.CDMaterialList(reqCtx, k.ID, k.Type.Stage())
	}
	if err != nil {
		return s.failure(ctx, reqCtx, "Unable to fetch images", err)
	}
	ensureArtifactSelection(list)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !slot.IsLatest(token) {
		return sdk.WithStack(sdk.ErrRequestAborted)
	}
	n := s.graph.Node(k)
	if n == nil {
		return sdk.NewErrorFrom(sdk.ErrNodeNotFound, "%s", k)
	}
	if kind == sdk.MaterialKindRollback {
		n.RollbackList = list
	} else {
		n.ArtifactList = list
	}
	return nil
}

// TriggerCI builds a CI node with its selected materials.
// A response without result leaves the session untouched.
func (s *Session) TriggerCI(ctx context.Context, k sdk.NodeKey, invalidateCache bool) (*sdk.TriggerResponse, error) {
	s.mu.RLock()
	if err := s.expectNode(k, sdk.NodeTypeCI); err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	req, err := BuildCITriggerRequest(s.graph.WorkflowOf(k), s.graph.Node(k), invalidateCache)
	s.mu.RUnlock()
	if err != nil {
		s.notifier.Error(ctx, "Unable to trigger build", sdk.UserMessage(err))
		return nil, err
	}

	ctx = context.WithValue(ctx, shiplog.PipelineID, k.ID)
	res, err := s.client.CITrigger(ctx, req)
	if err != nil {
		return nil, s.failure(ctx, ctx, "Unable to trigger build", err)
	}
	if res == nil {
		log.Warn(ctx, "build of %s triggered without result", k)
		return nil, nil
	}
	s.notifier.Success(ctx, "Pipeline triggered", fmt.Sprintf("build of %s started", k))
	s.afterTrigger(ctx)
	return res, nil
}

// TriggerCD deploys the selected artifact of a CD family node.
// A response without result leaves the session untouched.
func (s *Session) TriggerCD(ctx context.Context, k sdk.NodeKey, kind sdk.MaterialKind) (*sdk.TriggerResponse, error) {
	s.mu.RLock()
	n := s.graph.Node(k)
	if n == nil || !k.Type.IsCDFamily() {
		s.mu.RUnlock()
		return nil, sdk.NewErrorFrom(sdk.ErrNodeNotFound, "%s is not a deployment node", k)
	}
	req, err := BuildCDTriggerRequest(s.graph.WorkflowOf(k).AppID, n, kind)
	s.mu.RUnlock()
	if err != nil {
		s.notifier.Error(ctx, "Unable to trigger deployment", sdk.UserMessage(err))
		return nil, err
	}

	ctx = context.WithValue(ctx, shiplog.PipelineID, k.ID)
	res, err := s.client.CDTrigger(ctx, req)
	if err != nil {
		return nil, s.failure(ctx, ctx, "Unable to trigger deployment", err)
	}
	if res == nil {
		log.Warn(ctx, "deployment of %s triggered without result", k)
		return nil, nil
	}
	s.notifier.Success(ctx, "Deployment initiated", fmt.Sprintf("%s of %s started", req.CDWorkflowType, k))
	s.afterTrigger(ctx)
	return res, nil
}

func (s *Session) afterTrigger(ctx context.Context) {
	s.CloseMode()
	s.cache.flush()
	_, _ = s.poller.Poll(ctx)
}

// BulkCI builds the CI node of every selected workflow with its default material selection.
func (s *Session) BulkCI(ctx context.Context) ([]sdk.ResponseRow, error) {
	s.mu.RLock()
	selected := s.selected()
	appMaterials := s.appMaterials
	s.mu.RUnlock()
	if len(selected) == 0 {
		return nil, sdk.WithStack(sdk.ErrNoSelectedWorkflow)
	}

	calls := make([]Call, 0, len(selected))
	apps := make([]sdk.AppRef, 0, len(selected))
	for i := range selected {
		w := selected[i]
		apps = append(apps, sdk.AppRef{AppID: w.AppID, AppName: w.AppName})
		gitMaterials := appMaterials[w.AppID]
		calls = append(calls, func(ctx context.Context) error {
			var ci *sdk.Node
			for j := range w.Nodes {
				if w.Nodes[j].Key.Type == sdk.NodeTypeCI {
					ci = &w.Nodes[j]
					break
				}
			}
			if ci == nil {
				return sdk.NewErrorFrom(sdk.ErrNodeNotFound, "no build pipeline in workflow %s", w.Name)
			}
			if !hasHistory(ci.InputMaterialList) {
				materials, err := s.client.CIMaterialList(ctx, ci.Key.ID)
				if err != nil {
					return err
				}
				ci.InputMaterialList = WithPlaceholders(materials, gitMaterials)
				ensureSelection(ci.InputMaterialList, 0)
			}
			req, err := BuildCITriggerRequest(&w, ci, false)
			if err != nil {
				return err
			}
			_, err = s.client.CITrigger(ctx, req)
			return err
		})
	}
	return s.bulk(ctx, calls, apps)
}

// BulkCD deploys every selected workflow to an environment, with the selected
// or most recent artifact of the stage.
func (s *Session) BulkCD(ctx context.Context, envID int64, stage sdk.Stage) ([]sdk.ResponseRow, error) {
	s.mu.RLock()
	selected := s.selected()
	s.mu.RUnlock()
	if len(selected) == 0 {
		return nil, sdk.WithStack(sdk.ErrNoSelectedWorkflow)
	}

	calls := make([]Call, 0, len(selected))
	apps := make([]sdk.AppRef, 0, len(selected))
	for i := range selected {
		w := selected[i]
		apps = append(apps, sdk.AppRef{AppID: w.AppID, AppName: w.AppName})
		calls = append(calls, func(ctx context.Context) error {
			var cd *sdk.Node
			for j := range w.Nodes {
				if w.Nodes[j].Key.Type == stage.NodeType() && w.Nodes[j].EnvironmentID == envID {
					cd = &w.Nodes[j]
					break
				}
			}
			if cd == nil {
				return sdk.NewErrorFrom(sdk.ErrNodeNotFound, "no %s pipeline for environment %d in workflow %s", stage, envID, w.Name)
			}
			if len(cd.ArtifactList) == 0 {
				list, err := s.client.CDMaterialList(ctx, cd.Key.ID, stage)
				if err != nil {
					return err
				}
				cd.ArtifactList = list
			}
			ensureArtifactSelection(cd.ArtifactList)
			req, err := BuildCDTriggerRequest(w.AppID, cd, sdk.MaterialKindInput)
			if err != nil {
				return err
			}
			_, err = s.client.CDTrigger(ctx, req)
			return err
		})
	}
	return s.bulk(ctx, calls, apps)
}

func (s *Session) bulk(ctx context.Context, calls []Call, apps []sdk.AppRef) ([]sdk.ResponseRow, error) {
	rows, err := Aggregate(ctx, calls, apps, s.bulkLimit)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.bulkRows = rows
	s.mu.Unlock()

	counts := CountStatus(rows)
	log.Info(ctx, "bulk trigger: %d passed, %d failed, %d unauthorized",
		counts[sdk.BulkStatusPass], counts[sdk.BulkStatusFail], counts[sdk.BulkStatusUnauthorize])
	if counts[sdk.BulkStatusPass] > 0 {
		s.cache.flush()
		_, _ = s.poller.Poll(ctx)
	}
	return rows, nil
}

func hasHistory(ms []sdk.CIMaterial) bool {
	for _, m := range ms {
		if m.IsSourceConfigured() && len(m.History) > 0 {
			return true
		}
	}
	return false
}
