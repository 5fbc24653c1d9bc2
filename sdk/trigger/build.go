package trigger

import (
	"context"
	"path"
	"strings"

	giturls "github.com/whilp/git-urls"
	"golang.org/x/sync/errgroup"

	"github.com/shipyard-ci/shipctl/sdk"
	"github.com/shipyard-ci/shipctl/sdk/shipclient"
)

// Layout constants, in pixels.
const (
	NodeWidth     = 200
	NodeHeight    = 126
	GitNodeHeight = 80
	ColumnGap     = 80
	RowGap        = 30
	Padding       = 20
	WorkflowGap   = 16
)

// Sources are the raw API responses of one application.
type Sources struct {
	Workflows   *sdk.WorkflowsResponse
	CIPipelines *sdk.CIPipelinesResponse
	CDPipelines *sdk.CDPipelinesResponse
	Materials   *sdk.AppMaterialsResponse
}

// FetchSources loads in parallel everything BuildWorkflows needs for an application.
func FetchSources(ctx context.Context, c shipclient.WorkflowClient, appID int64) (Sources, error) {
	var src Sources
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		src.Workflows, err = c.WorkflowList(ctx, appID)
		return sdk.WrapError(err, "unable to list workflows of app %d", appID)
	})
	g.Go(func() error {
		var err error
		src.CIPipelines, err = c.CIPipelineList(ctx, appID)
		return sdk.WrapError(err, "unable to list ci pipelines of app %d", appID)
	})
	g.Go(func() error {
		var err error
		src.CDPipelines, err = c.CDPipelineList(ctx, appID)
		return sdk.WrapError(err, "unable to list cd pipelines of app %d", appID)
	})
	g.Go(func() error {
		var err error
		src.Materials, err = c.AppMaterialList(ctx, appID)
		return sdk.WrapError(err, "unable to list git materials of app %d", appID)
	})
	return src, g.Wait()
}

// MaterialDisplayName returns the material name, or the repository name of its url.
func MaterialDisplayName(name, rawURL string) string {
	if name != "" || rawURL == "" {
		return name
	}
	u, err := giturls.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.TrimSuffix(path.Base(strings.TrimSuffix(u.Path, "/")), ".git")
}

// WithPlaceholders returns the materials completed with one "source not configured"
// entry per application git material the pipeline does not build.
// Placeholders carry the negated git material id as id.
func WithPlaceholders(materials []sdk.CIMaterial, appMaterials []sdk.GitMaterial) []sdk.CIMaterial {
	known := make(map[int64]struct{}, len(materials))
	for _, m := range materials {
		known[m.GitMaterialID] = struct{}{}
	}
	for _, gm := range appMaterials {
		if _, has := known[gm.ID]; has {
			continue
		}
		materials = append(materials, sdk.CIMaterial{
			ID:              -gm.ID,
			GitMaterialID:   gm.ID,
			GitMaterialName: MaterialDisplayName(gm.Name, gm.URL),
			GitURL:          gm.URL,
			Type:            sdk.SourceTypeBranchFixed,
			Value:           sdk.UnsetBranchValue,
			IsBranchError:   true,
			BranchErrorMsg:  sdk.SourceNotConfiguredMessage,
		})
	}
	return materials
}

// BuildWorkflows assembles the workflow graphs of an application.
func BuildWorkflows(src Sources) []sdk.Workflow {
	if src.Workflows == nil {
		return nil
	}

	ciPipelines := map[int64]sdk.CIPipeline{}
	var ciConfigured int64
	if src.CIPipelines != nil {
		ciConfigured = src.CIPipelines.CIGitMaterialID
		for _, p := range src.CIPipelines.CIPipelines {
			ciPipelines[p.ID] = p
		}
	}
	cdPipelines := map[int64]sdk.CDPipeline{}
	if src.CDPipelines != nil {
		for _, p := range src.CDPipelines.Pipelines {
			cdPipelines[p.ID] = p
		}
	}
	gitMaterials := map[int64]sdk.GitMaterial{}
	var appMaterials []sdk.GitMaterial
	if src.Materials != nil {
		appMaterials = src.Materials.Materials
		for _, gm := range appMaterials {
			gitMaterials[gm.ID] = gm
		}
	}

	res := make([]sdk.Workflow, 0, len(src.Workflows.Workflows))
	y := 0
	for _, tree := range src.Workflows.Workflows {
		b := workflowBuilder{
			wf: sdk.Workflow{
				ID:                        tree.ID,
				Name:                      tree.Name,
				AppID:                     src.Workflows.AppID,
				AppName:                   src.Workflows.AppName,
				CIConfiguredGitMaterialID: ciConfigured,
			},
			index:        map[sdk.NodeKey]int{},
			depth:        map[sdk.NodeKey]int{},
			tails:        map[int64]sdk.NodeKey{},
			gitMaterials: gitMaterials,
			appMaterials: appMaterials,
		}
		if b.wf.AppID == 0 {
			b.wf.AppID = tree.AppID
		}

		var cds []sdk.WorkflowTreeNode
		for _, entry := range tree.Tree {
			switch entry.Type {
			case sdk.TreeTypeCIPipeline:
				if p, has := ciPipelines[entry.ComponentID]; has {
					b.addCI(p)
				}
			case sdk.TreeTypeWebhook:
				b.addWebhook(entry.ComponentID)
			case sdk.TreeTypeCDPipeline:
				cds = append(cds, entry)
			}
		}

		// a CD pipeline may be listed before its parent
		for len(cds) > 0 {
			var pending []sdk.WorkflowTreeNode
			for _, entry := range cds {
				p, has := cdPipelines[entry.ComponentID]
				if !has {
					continue
				}
				parent, ok := b.parentKey(entry, p)
				if !ok {
					pending = append(pending, entry)
					continue
				}
				b.addCD(p, parent)
			}
			if len(pending) == len(cds) {
				break
			}
			cds = pending
		}

		b.layout()
		b.wf.Y = y
		y += b.wf.Height + WorkflowGap
		res = append(res, b.wf)
	}
	return res
}

type workflowBuilder struct {
	wf           sdk.Workflow
	index        map[sdk.NodeKey]int
	depth        map[sdk.NodeKey]int
	tails        map[int64]sdk.NodeKey
	gitMaterials map[int64]sdk.GitMaterial
	appMaterials []sdk.GitMaterial
}

func (b *workflowBuilder) add(n sdk.Node, depth int) {
	if n.Status == "" && n.Key.Type != sdk.NodeTypeGit {
		n.Status = sdk.StatusNotTriggered
	}
	b.index[n.Key] = len(b.wf.Nodes)
	b.depth[n.Key] = depth
	b.wf.Nodes = append(b.wf.Nodes, n)
}

func (b *workflowBuilder) link(from, to sdk.NodeKey) {
	i, has := b.index[from]
	if !has {
		return
	}
	b.wf.Nodes[i].Downstreams = append(b.wf.Nodes[i].Downstreams, to)
}

func (b *workflowBuilder) addCI(p sdk.CIPipeline) {
	ciKey := sdk.NodeKey{Type: sdk.NodeTypeCI, ID: p.ID}
	materials := make([]sdk.CIMaterial, 0, len(p.CIMaterials))
	regex := false
	for _, m := range p.CIMaterials {
		gm := b.gitMaterials[m.GitMaterialID]
		name := MaterialDisplayName(m.GitMaterialName, gm.URL)
		if name == "" {
			name = MaterialDisplayName(gm.Name, gm.URL)
		}
		if m.Source.Type == sdk.SourceTypeBranchRegex {
			regex = true
		}
		b.add(sdk.Node{
			Key:           sdk.NodeKey{Type: sdk.NodeTypeGit, ID: m.ID},
			Title:         name,
			GitMaterialID: m.GitMaterialID,
			GitURL:        gm.URL,
			Branch:        m.Source.Value,
			BranchRegex:   m.Source.Type == sdk.SourceTypeBranchRegex,
			Downstreams:   []sdk.NodeKey{ciKey},
		}, 0)
		materials = append(materials, sdk.CIMaterial{
			ID:              m.ID,
			GitMaterialID:   m.GitMaterialID,
			GitMaterialName: name,
			GitURL:          gm.URL,
			Type:            m.Source.Type,
			Value:           m.Source.Value,
			Regex:           m.Source.Regex,
			Active:          true,
		})
	}
	materials = WithPlaceholders(materials, b.appMaterials)
	if len(materials) > 0 {
		materials[0].Selected = true
	}

	triggerType := "AUTOMATIC"
	if p.IsManual {
		triggerType = "MANUAL"
	}
	b.add(sdk.Node{
		Key:               ciKey,
		Title:             p.Name,
		TriggerType:       triggerType,
		BranchRegex:       regex,
		IsLinkedCI:        p.ParentCIPipeline != 0,
		IsExternalCI:      p.IsExternal,
		IsCacheAvailable:  p.IsCacheAvailable,
		InputMaterialList: materials,
	}, 1)
}

func (b *workflowBuilder) addWebhook(id int64) {
	b.add(sdk.Node{
		Key:   sdk.NodeKey{Type: sdk.NodeTypeWebhook, ID: id},
		Title: "Webhook",
	}, 0)
}

func (b *workflowBuilder) parentKey(entry sdk.WorkflowTreeNode, p sdk.CDPipeline) (sdk.NodeKey, bool) {
	parentID, parentType := entry.ParentID, entry.ParentType
	if parentType == "" {
		parentID, parentType = p.ParentPipelineID, p.ParentPipelineType
	}
	var k sdk.NodeKey
	switch parentType {
	case sdk.TreeTypeCDPipeline:
		tail, has := b.tails[parentID]
		return tail, has
	case sdk.TreeTypeWebhook:
		k = sdk.NodeKey{Type: sdk.NodeTypeWebhook, ID: parentID}
	default:
		if parentID == 0 {
			parentID = p.CIPipelineID
		}
		k = sdk.NodeKey{Type: sdk.NodeTypeCI, ID: parentID}
	}
	_, has := b.index[k]
	return k, has
}

func (b *workflowBuilder) addCD(p sdk.CDPipeline, parent sdk.NodeKey) {
	base := sdk.Node{
		ParentCIPipelineID: p.CIPipelineID,
		ParentPipelineID:   p.ParentPipelineID,
		ParentPipelineType: nodeTypeOfTree(p.ParentPipelineType),
		EnvironmentID:      p.EnvironmentID,
		EnvironmentName:    p.EnvironmentName,
		TriggerType:        p.TriggerType,
		DeploymentStrategy: p.DeploymentStrategy,
	}
	if p.UserApprovalConfig != nil {
		base.RequiredApprovals = p.UserApprovalConfig.RequiredCount
		base.ApprovalUsers = p.UserApprovalConfig.Approvers
	}

	chain := make([]sdk.Node, 0, 3)
	if p.PreStage.IsConfigured() {
		n := base
		n.Key = sdk.NodeKey{Type: sdk.NodeTypePreCD, ID: p.ID}
		n.Title = "Pre-deployment"
		n.TriggerType = p.PreStage.TriggerType
		chain = append(chain, n)
	}
	n := base
	n.Key = sdk.NodeKey{Type: sdk.NodeTypeCD, ID: p.ID}
	n.Title = p.Name
	chain = append(chain, n)
	if p.PostStage.IsConfigured() {
		n := base
		n.Key = sdk.NodeKey{Type: sdk.NodeTypePostCD, ID: p.ID}
		n.Title = "Post-deployment"
		n.TriggerType = p.PostStage.TriggerType
		chain = append(chain, n)
	}

	depth := b.depth[parent] + 1
	prev := parent
	for i := range chain {
		b.add(chain[i], depth+i)
		b.link(prev, chain[i].Key)
		prev = chain[i].Key
	}
	b.tails[p.ID] = prev
}

func nodeTypeOfTree(t string) sdk.NodeType {
	switch t {
	case sdk.TreeTypeWebhook:
		return sdk.NodeTypeWebhook
	case sdk.TreeTypeCDPipeline:
		return sdk.NodeTypeCD
	case sdk.TreeTypeCIPipeline:
		return sdk.NodeTypeCI
	}
	return ""
}

// layout places nodes on a grid, one column per depth and one row per node of the column.
func (b *workflowBuilder) layout() {
	rows := map[int]int{}
	maxX, maxY := 0, 0
	for i := range b.wf.Nodes {
		n := &b.wf.Nodes[i]
		col := b.depth[n.Key]
		n.Width = NodeWidth
		n.Height = NodeHeight
		if n.Key.Type == sdk.NodeTypeGit {
			n.Height = GitNodeHeight
		}
		n.X = Padding + col*(NodeWidth+ColumnGap)
		n.Y = Padding + rows[col]*(NodeHeight+RowGap)
		rows[col]++
		if n.X+n.Width > maxX {
			maxX = n.X + n.Width
		}
		if n.Y+n.Height > maxY {
			maxY = n.Y + n.Height
		}
	}
	b.wf.Width = maxX + Padding
	b.wf.Height = maxY + Padding
}
