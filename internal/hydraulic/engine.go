// Package hydraulic wraps an external steady-state/extended-period
// hydraulic solver behind a session API. The solver owns the network
// topology; this package only ever asks it for counts, per-entity
// values by 1-based ordinal, and period stepping.
package hydraulic

// CountCode selects an entity count query.
type CountCode int

// Count codes, matching the EPANET toolkit.
const (
	CountNodes CountCode = 0
	CountTanks CountCode = 1
	CountLinks CountCode = 2
)

// NodeParam identifies a per-node attribute.
type NodeParam int

// Node parameter codes, matching the EPANET toolkit.
const (
	NodeElevation  NodeParam = 0
	NodeBaseDemand NodeParam = 1
	NodeDemand     NodeParam = 9
	NodeHead       NodeParam = 10
	NodePressure   NodeParam = 11
	NodeQuality    NodeParam = 12
)

// LinkParam identifies a per-link attribute.
type LinkParam int

// Link parameter codes, matching the EPANET toolkit.
const (
	LinkDiameter  LinkParam = 0
	LinkLength    LinkParam = 1
	LinkRoughness LinkParam = 2
	LinkFlow      LinkParam = 8
	LinkVelocity  LinkParam = 9
	LinkHeadloss  LinkParam = 10
	LinkStatus    LinkParam = 11
)

// NodeType classifies a node as a junction or a supply node.
type NodeType int

// Node type codes, matching the EPANET toolkit.
const (
	NodeJunction  NodeType = 0
	NodeReservoir NodeType = 1
	NodeTank      NodeType = 2
)

// IsSource reports whether the node supplies the network (reservoir or
// tank). Source nodes are excluded from pressure constraint checks.
func (t NodeType) IsSource() bool {
	return t != NodeJunction
}

// Engine is the opaque external solver. All entity indices are
// 1-based, following the toolkit convention. Implementations are not
// required to be safe for concurrent use; concurrency is achieved by
// opening independent engine instances (see cost.Pool).
type Engine interface {
	// Open loads the topology input file and prepares a solver project.
	Open(inputPath, reportPath string) error
	// OpenHydraulics prepares the hydraulics solver for the open project.
	OpenHydraulics() error
	// Count returns an entity count for the open project.
	Count(code CountCode) (int, error)
	// NodeID returns the symbolic id of the node at the given ordinal.
	NodeID(index int) (string, error)
	// NodeType returns the node's type flag.
	NodeType(index int) (NodeType, error)
	// NodeValue returns a node attribute for the current period.
	NodeValue(index int, param NodeParam) (float64, error)
	// LinkID returns the symbolic id of the link at the given ordinal.
	LinkID(index int) (string, error)
	// LinkValue returns a link attribute for the current period.
	LinkValue(index int, param LinkParam) (float64, error)
	// SetLinkValue writes a link attribute into solver state.
	SetLinkValue(index int, param LinkParam, value float64) error
	// InitHydraulics resets the hydraulics solver. saveResults=false is
	// the no-save flag used for repeated in-memory evaluation.
	InitHydraulics(saveResults bool) error
	// SolvePeriod solves the current hydraulic period and returns the
	// simulation clock in seconds.
	SolvePeriod() (int64, error)
	// AdvancePeriod advances to the next hydraulic period and returns
	// the step length in seconds; 0 means the run is finished.
	AdvancePeriod() (int64, error)
	// CloseHydraulics releases the hydraulics solver.
	CloseHydraulics() error
	// Close releases the solver project.
	Close() error
}

// Factory opens a fresh, independent Engine instance. Each Network
// session owns exactly one engine.
type Factory func() (Engine, error)
