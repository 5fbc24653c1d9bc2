package sdk

import "time"

// UnsetBranchValue is the branch value of a git material the CI pipeline does not build.
const UnsetBranchValue = "/ "

// SourceNotConfiguredMessage is the branch error of a placeholder material.
const SourceNotConfiguredMessage = "Source is not configured"

// Source types of a CI material
const (
	SourceTypeBranchFixed = "SOURCE_TYPE_BRANCH_FIXED"
	SourceTypeBranchRegex = "SOURCE_TYPE_BRANCH_REGEX"
	SourceTypeTagAny      = "SOURCE_TYPE_TAG_ANY"
	SourceTypeWebhook     = "WEBHOOK"
)

// MaterialKind selects the artifact list of a CD node.
type MaterialKind string

// Material kinds
const (
	MaterialKindInput    MaterialKind = "inputMaterialList"
	MaterialKindRollback MaterialKind = "rollbackMaterialList"
)

// CIMaterial binds a git material to a CI pipeline.
type CIMaterial struct {
	ID                       int64           `json:"id" cli:"id,key"`
	GitMaterialID            int64           `json:"gitMaterialId" cli:"git_material_id"`
	GitMaterialName          string          `json:"gitMaterialName" cli:"name"`
	GitURL                   string          `json:"gitMaterialUrl" cli:"url"`
	Type                     string          `json:"type" cli:"type"`
	Value                    string          `json:"value" cli:"value"`
	Regex                    string          `json:"regex,omitempty" cli:"-"`
	Selected                 bool            `json:"isSelected" cli:"selected"`
	Active                   bool            `json:"active" cli:"-"`
	History                  []CommitHistory `json:"history" cli:"-"`
	Loading                  bool            `json:"isMaterialLoading" cli:"-"`
	IsRepoError              bool            `json:"isRepoError" cli:"-"`
	RepoErrorMsg             string          `json:"repoErrorMsg" cli:"-"`
	IsBranchError            bool            `json:"isBranchError" cli:"-"`
	BranchErrorMsg           string          `json:"branchErrorMsg" cli:"error"`
	IsMaterialSelectionError bool            `json:"isMaterialSelectionError" cli:"-"`
	LastFetchTime            string          `json:"lastFetchTime" cli:"last_fetch"`
}

// IsWebhook returns true if the material is driven by webhook events.
func (m CIMaterial) IsWebhook() bool {
	return m.Type == SourceTypeWebhook
}

// IsSourceConfigured returns false for placeholder materials.
func (m CIMaterial) IsSourceConfigured() bool {
	return m.Value != UnsetBranchValue
}

// SelectedCommit returns the selected history row, the first row if none is explicitly selected.
func (m *CIMaterial) SelectedCommit() *CommitHistory {
	for i := range m.History {
		if m.History[i].Selected {
			return &m.History[i]
		}
	}
	if len(m.History) > 0 {
		return &m.History[0]
	}
	return nil
}

// CommitHistory is a commit or a webhook event of a git material.
type CommitHistory struct {
	Commit      string            `json:"Commit" cli:"commit,key"`
	Author      string            `json:"Author" cli:"author"`
	Date        string            `json:"Date" cli:"date"`
	Message     string            `json:"Message" cli:"message"`
	Changes     []string          `json:"Changes" cli:"-"`
	Excluded    bool              `json:"Excluded" cli:"excluded"`
	WebhookData *WebhookData      `json:"WebhookData,omitempty" cli:"-"`
	Selected    bool              `json:"isSelected" cli:"selected"`
	ShowChanges bool              `json:"showChanges" cli:"-"`
	Extra       map[string]string `json:"-" cli:"-"`
}

// Reference returns the commit hash, or the webhook event id for webhook rows.
func (c CommitHistory) Reference() string {
	if c.WebhookData != nil && c.WebhookData.ID != 0 {
		return c.WebhookData.IDString()
	}
	return c.Commit
}

// WebhookData is the event payload of a webhook material row.
type WebhookData struct {
	ID              int64             `json:"id"`
	EventActionType string            `json:"eventActionType"`
	Data            map[string]string `json:"data"`
}

// IDString returns the webhook id as a string.
func (w WebhookData) IDString() string {
	return itoa(w.ID)
}

// Artifact is a build image candidate for a CD node.
type Artifact struct {
	ID                int64            `json:"id" cli:"id,key"`
	Image             string           `json:"image" cli:"image"`
	DeployedTime      string           `json:"deployed_time" cli:"deployed_time"`
	WfrID             int64            `json:"wfrId" cli:"-"`
	Deployed          bool             `json:"deployed" cli:"deployed"`
	Latest            bool             `json:"latest" cli:"latest"`
	Selected          bool             `json:"isSelected" cli:"selected"`
	UserApprovalState string           `json:"userApprovalState,omitempty" cli:"-"`
	Materials         []ArtifactSource `json:"material_info,omitempty" cli:"-"`
	CreatedOn         time.Time        `json:"createdOn,omitempty" cli:"-"`
}

// ArtifactSource is the source commit an artifact was built from.
type ArtifactSource struct {
	Revision   string `json:"revision"`
	URL        string `json:"url"`
	Branch     string `json:"branch"`
	Message    string `json:"message"`
	Author     string `json:"author"`
	ModifiedAt string `json:"modifiedTime"`
}
