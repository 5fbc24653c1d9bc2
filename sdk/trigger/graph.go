package trigger

import (
	"sort"

	"github.com/shipyard-ci/shipctl/sdk"
)

type nodeRef struct {
	workflow int
	node     int
}

// Graph indexes the nodes of a set of workflows by their composite key.
// Nodes are updated in place through the index, workflows are never rebuilt.
type Graph struct {
	workflows []sdk.Workflow
	nodes     map[sdk.NodeKey]nodeRef
	byID      map[int64]int
}

// NewGraph indexes the given workflows. The slice is owned by the graph afterwards.
func NewGraph(workflows []sdk.Workflow) *Graph {
	g := &Graph{
		workflows: workflows,
		nodes:     make(map[sdk.NodeKey]nodeRef),
		byID:      make(map[int64]int, len(workflows)),
	}
	for i := range g.workflows {
		g.byID[g.workflows[i].ID] = i
		for j := range g.workflows[i].Nodes {
			g.nodes[g.workflows[i].Nodes[j].Key] = nodeRef{workflow: i, node: j}
		}
	}
	return g
}

// Len returns the number of workflows.
func (g *Graph) Len() int {
	return len(g.workflows)
}

// Node returns the node with the given key, nil if unknown.
func (g *Graph) Node(k sdk.NodeKey) *sdk.Node {
	ref, ok := g.nodes[k]
	if !ok {
		return nil
	}
	return &g.workflows[ref.workflow].Nodes[ref.node]
}

// WorkflowOf returns the workflow holding the node, nil if unknown.
func (g *Graph) WorkflowOf(k sdk.NodeKey) *sdk.Workflow {
	ref, ok := g.nodes[k]
	if !ok {
		return nil
	}
	return &g.workflows[ref.workflow]
}

// Workflow returns the workflow with the given id, nil if unknown.
func (g *Graph) Workflow(id int64) *sdk.Workflow {
	i, ok := g.byID[id]
	if !ok {
		return nil
	}
	return &g.workflows[i]
}

// Each calls fn for every workflow, in order.
func (g *Graph) Each(fn func(w *sdk.Workflow)) {
	for i := range g.workflows {
		fn(&g.workflows[i])
	}
}

// Snapshot returns a deep copy of the workflows.
func (g *Graph) Snapshot() []sdk.Workflow {
	res := make([]sdk.Workflow, len(g.workflows))
	for i := range g.workflows {
		res[i] = cloneWorkflow(g.workflows[i])
	}
	return res
}

// InProgressKeys returns the sorted keys of the nodes whose status is in flight.
func (g *Graph) InProgressKeys() []sdk.NodeKey {
	var keys []sdk.NodeKey
	for k, ref := range g.nodes {
		if g.workflows[ref.workflow].Nodes[ref.node].InProgress() {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func cloneWorkflow(w sdk.Workflow) sdk.Workflow {
	c := w
	c.Nodes = make([]sdk.Node, len(w.Nodes))
	for i := range w.Nodes {
		c.Nodes[i] = cloneNode(w.Nodes[i])
	}
	return c
}

func cloneNode(n sdk.Node) sdk.Node {
	c := n
	c.Downstreams = append([]sdk.NodeKey(nil), n.Downstreams...)
	c.ApprovalUsers = append([]string(nil), n.ApprovalUsers...)
	c.InputMaterialList = cloneMaterials(n.InputMaterialList)
	c.ArtifactList = append([]sdk.Artifact(nil), n.ArtifactList...)
	c.RollbackList = append([]sdk.Artifact(nil), n.RollbackList...)
	return c
}

func cloneMaterials(ms []sdk.CIMaterial) []sdk.CIMaterial {
	if ms == nil {
		return nil
	}
	res := make([]sdk.CIMaterial, len(ms))
	for i := range ms {
		res[i] = ms[i]
		res[i].History = append([]sdk.CommitHistory(nil), ms[i].History...)
	}
	return res
}
