package trigger

import (
	"fmt"

	"github.com/shipyard-ci/shipctl/sdk"
)

// Mode is the interaction mode of a session. Only one mode is active at a time.
type Mode interface {
	fmt.Stringer
	// slot returns the name of the fetch slot owned by the mode, empty if none.
	slot() string
}

// ModeClosed is the idle mode.
type ModeClosed struct{}

func (ModeClosed) String() string { return "closed" }
func (ModeClosed) slot() string   { return "" }

// ModeCI selects the materials of a CI node before a build.
type ModeCI struct {
	Node sdk.NodeKey
}

func (m ModeCI) String() string { return "ci " + m.Node.String() }
func (ModeCI) slot() string     { return SlotCIMaterial }

// ModeRegex edits the branch of a regex material of a CI node.
type ModeRegex struct {
	Node sdk.NodeKey
}

func (m ModeRegex) String() string { return "regex " + m.Node.String() }
func (ModeRegex) slot() string     { return SlotCIMaterial }

// ModeCD selects the artifact of a CD family node before a deployment.
type ModeCD struct {
	Node sdk.NodeKey
	Kind sdk.MaterialKind
}

func (m ModeCD) String() string { return "cd " + m.Node.String() }
func (ModeCD) slot() string     { return SlotCDMaterial }

// ModeBulkCI builds the selected workflows.
type ModeBulkCI struct{}

func (ModeBulkCI) String() string { return "bulk ci" }
func (ModeBulkCI) slot() string   { return SlotCIMaterial }

// ModeBulkCD deploys the selected workflows to one environment.
type ModeBulkCD struct {
	EnvironmentID int64
	Stage         sdk.Stage
}

func (m ModeBulkCD) String() string {
	return fmt.Sprintf("bulk cd env=%d stage=%s", m.EnvironmentID, m.Stage)
}
func (ModeBulkCD) slot() string { return SlotCDMaterial }
