package sdk

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeType is the kind of a workflow node.
type NodeType string

// Node types
const (
	NodeTypeGit     NodeType = "GIT"
	NodeTypeCI      NodeType = "CI"
	NodeTypeWebhook NodeType = "WEBHOOK"
	NodeTypePreCD   NodeType = "PRECD"
	NodeTypeCD      NodeType = "CD"
	NodeTypePostCD  NodeType = "POSTCD"
)

// IsCDFamily returns true for PRECD, CD and POSTCD nodes.
func (t NodeType) IsCDFamily() bool {
	return t == NodeTypePreCD || t == NodeTypeCD || t == NodeTypePostCD
}

// Stage returns the CD workflow type matching the node type.
func (t NodeType) Stage() Stage {
	switch t {
	case NodeTypePreCD:
		return StagePre
	case NodeTypePostCD:
		return StagePost
	}
	return StageDeploy
}

// NodeKey is the composite identity of a node in a workflow.
type NodeKey struct {
	Type NodeType `json:"type"`
	ID   int64    `json:"id"`
}

func (k NodeKey) String() string {
	return fmt.Sprintf("%s-%d", k.Type, k.ID)
}

// ParseNodeKey parses the TYPE-ID form of a node key.
func ParseNodeKey(s string) (NodeKey, error) {
	i := strings.LastIndex(s, "-")
	if i <= 0 {
		return NodeKey{}, NewErrorFrom(ErrWrongRequest, "invalid node key %q", s)
	}
	id, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return NodeKey{}, NewErrorFrom(ErrWrongRequest, "invalid node key %q", s)
	}
	return NodeKey{Type: NodeType(strings.ToUpper(s[:i])), ID: id}, nil
}

// Stage is the workflow type sent when triggering a CD family node.
type Stage string

// CD stages
const (
	StagePre    Stage = "PRE"
	StageDeploy Stage = "DEPLOY"
	StagePost   Stage = "POST"
)

// MaterialStage returns the value expected by the material endpoint.
func (s Stage) MaterialStage() string {
	switch s {
	case StagePre:
		return "PRECD"
	case StagePost:
		return "POSTCD"
	}
	return "DEPLOY"
}

// NodeType returns the node type matching the stage.
func (s Stage) NodeType() NodeType {
	switch s {
	case StagePre:
		return NodeTypePreCD
	case StagePost:
		return NodeTypePostCD
	}
	return NodeTypeCD
}

// ParseStage parses a stage, accepting PRE/PRECD, DEPLOY/CD and POST/POSTCD.
func ParseStage(s string) (Stage, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "DEPLOY", "CD":
		return StageDeploy, nil
	case "PRE", "PRECD":
		return StagePre, nil
	case "POST", "POSTCD":
		return StagePost, nil
	}
	return "", NewErrorFrom(ErrWrongRequest, "unknown stage %q", s)
}

// Workflow is the CI/CD graph of one application.
type Workflow struct {
	ID                        int64  `json:"id" cli:"id,key"`
	Name                      string `json:"name" cli:"name"`
	AppID                     int64  `json:"appId" cli:"app_id"`
	AppName                   string `json:"appName" cli:"app_name"`
	X                         int    `json:"x" cli:"-"`
	Y                         int    `json:"y" cli:"-"`
	Width                     int    `json:"width" cli:"-"`
	Height                    int    `json:"height" cli:"-"`
	Nodes                     []Node `json:"nodes" cli:"-"`
	Selected                  bool   `json:"isSelected" cli:"selected"`
	CIConfiguredGitMaterialID int64  `json:"ciConfiguredGitMaterialId" cli:"-"`
}

// NodeIndex returns the position of the node in the workflow, -1 if absent.
func (w *Workflow) NodeIndex(k NodeKey) int {
	for i := range w.Nodes {
		if w.Nodes[i].Key == k {
			return i
		}
	}
	return -1
}

// Node is one vertex of a workflow graph.
type Node struct {
	Key                NodeKey      `json:"key" cli:"-"`
	Title              string       `json:"title" cli:"title"`
	Status             string       `json:"status" cli:"status"`
	StorageConfigured  bool         `json:"storageConfigured" cli:"-"`
	X                  int          `json:"x" cli:"-"`
	Y                  int          `json:"y" cli:"-"`
	Width              int          `json:"width" cli:"-"`
	Height             int          `json:"height" cli:"-"`
	Downstreams        []NodeKey    `json:"downstreams" cli:"-"`
	ParentCIPipelineID int64        `json:"parentCiPipeline" cli:"-"`
	ParentPipelineID   int64        `json:"parentPipelineId" cli:"-"`
	ParentPipelineType NodeType     `json:"parentPipelineType" cli:"-"`
	EnvironmentID      int64        `json:"environmentId" cli:"-"`
	EnvironmentName    string       `json:"environmentName" cli:"environment"`
	TriggerType        string       `json:"triggerType" cli:"trigger"`
	DeploymentStrategy string       `json:"deploymentStrategy" cli:"-"`
	BranchRegex        bool         `json:"isRegex" cli:"-"`
	IsLinkedCI         bool         `json:"isLinkedCI" cli:"-"`
	IsExternalCI       bool         `json:"isExternalCI" cli:"-"`
	IsCacheAvailable   bool         `json:"isCacheAvailable" cli:"-"`
	RequiredApprovals  int          `json:"requiredApprovals" cli:"-"`
	ApprovalUsers      []string     `json:"approvalUsers" cli:"-"`
	GitMaterialID      int64        `json:"gitMaterialId,omitempty" cli:"-"`
	GitURL             string       `json:"url,omitempty" cli:"-"`
	Branch             string       `json:"branch,omitempty" cli:"-"`
	InputMaterialList  []CIMaterial `json:"inputMaterialList,omitempty" cli:"-"`
	ArtifactList       []Artifact   `json:"artifactList,omitempty" cli:"-"`
	RollbackList       []Artifact   `json:"rollbackMaterialList,omitempty" cli:"-"`
}

// InProgress returns true if the node status is in flight.
func (n Node) InProgress() bool {
	return StatusIsInProgress(n.Status)
}

// SelectedMaterial returns the selected CI material of the node, the first one if none is selected.
func (n *Node) SelectedMaterial() *CIMaterial {
	if len(n.InputMaterialList) == 0 {
		return nil
	}
	for i := range n.InputMaterialList {
		if n.InputMaterialList[i].Selected {
			return &n.InputMaterialList[i]
		}
	}
	return &n.InputMaterialList[0]
}

// Materials returns the artifact list of the given kind.
func (n *Node) Materials(kind MaterialKind) []Artifact {
	if kind == MaterialKindRollback {
		return n.RollbackList
	}
	return n.ArtifactList
}

// SelectedArtifact returns the selected artifact among the given list, nil if none.
func (n *Node) SelectedArtifact(kind MaterialKind) *Artifact {
	list := n.ArtifactList
	if kind == MaterialKindRollback {
		list = n.RollbackList
	}
	for i := range list {
		if list[i].Selected {
			return &list[i]
		}
	}
	return nil
}

// CIConfiguredMaterial returns the node material bound to the given git material.
func (n *Node) CIConfiguredMaterial(gitMaterialID int64) *CIMaterial {
	for i := range n.InputMaterialList {
		if n.InputMaterialList[i].GitMaterialID == gitMaterialID {
			return &n.InputMaterialList[i]
		}
	}
	return nil
}

// NodeStatusLine is a flat view of a node used for display.
type NodeStatusLine struct {
	WorkflowName string `cli:"workflow"`
	Node         string `cli:"node,key"`
	Title        string `cli:"title"`
	Status       string `cli:"status"`
	Environment  string `cli:"environment"`
	Downstreams  string `cli:"downstreams"`
}
