package hydraulic

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hydronet/optinet/pkg/logger"
)

// Network is one solver session bound to one topology input. It holds
// only counts and the engine handle; the topology itself stays inside
// the engine. A Network is not safe for concurrent use.
type Network struct {
	engine      Engine
	inputPath   string
	nodeCount   int
	linkCount   int
	initialized bool
	logger      *slog.Logger
}

// Open verifies the topology input exists and opens a solver session
// for it. The input file check happens before the engine is touched,
// so a missing file never leaves partial solver state behind.
func Open(engine Engine, inputPath string) (*Network, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return nil, &ConfigurationError{Path: inputPath, Reason: "topology input file does not exist"}
	}

	reportPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".rpt"
	if err := engine.Open(inputPath, reportPath); err != nil {
		return nil, fmt.Errorf("failed to open solver project for %s: %w", inputPath, err)
	}
	if err := engine.OpenHydraulics(); err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("failed to open hydraulics solver for %s: %w", inputPath, err)
	}

	return &Network{
		engine:    engine,
		inputPath: inputPath,
		logger:    logger.Default,
	}, nil
}

// SetLogger sets the session's logger
func (n *Network) SetLogger(l *slog.Logger) {
	n.logger = l
}

// Initialize queries node and link counts from the engine. It must be
// called once after Open; every later per-entity access depends on
// the counts.
func (n *Network) Initialize() error {
	nodes, err := n.engine.Count(CountNodes)
	if err != nil {
		return fmt.Errorf("failed to query node count: %w", err)
	}
	links, err := n.engine.Count(CountLinks)
	if err != nil {
		return fmt.Errorf("failed to query link count: %w", err)
	}

	n.nodeCount = nodes
	n.linkCount = links
	n.initialized = true

	n.logger.Debug("network session initialized",
		"input", n.inputPath,
		"nodes", nodes,
		"links", links)
	return nil
}

// NodeCount returns the number of nodes reported by the engine.
func (n *Network) NodeCount() int {
	return n.nodeCount
}

// LinkCount returns the number of links reported by the engine.
func (n *Network) LinkCount() int {
	return n.linkCount
}

// SetDiameters writes one diameter per link into engine state. The
// length check happens before any engine write, so a mismatched
// assignment never mutates solver state.
func (n *Network) SetDiameters(diameters []float64) error {
	if !n.initialized {
		return fmt.Errorf("network session is not initialized")
	}
	if len(diameters) != n.linkCount {
		return &DimensionMismatchError{Want: n.linkCount, Got: len(diameters)}
	}

	for i, d := range diameters {
		if err := n.engine.SetLinkValue(i+1, LinkDiameter, d); err != nil {
			return fmt.Errorf("failed to set diameter on link %d: %w", i+1, err)
		}
	}
	return nil
}

// RunSimulation runs one full extended-period simulation and returns a
// fresh Snapshot. The solver is re-initialized with the no-save flag
// on every call; skipping that reset would leak state from the
// previous evaluation into this one, silently corrupting every later
// fitness value. Cancellation is checked once per hydraulic period.
func (n *Network) RunSimulation(ctx context.Context) (*Snapshot, error) {
	if !n.initialized {
		return nil, fmt.Errorf("network session is not initialized")
	}

	if err := n.engine.InitHydraulics(false); err != nil {
		return nil, fmt.Errorf("failed to initialize hydraulics solver: %w", err)
	}

	snapshot := &Snapshot{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation cancelled: %w", err)
		}

		clock, err := n.engine.SolvePeriod()
		if err != nil {
			return nil, err
		}

		period, err := n.collectPeriod(clock)
		if err != nil {
			return nil, err
		}
		snapshot.Periods = append(snapshot.Periods, period)

		step, err := n.engine.AdvancePeriod()
		if err != nil {
			return nil, err
		}
		if step <= 0 {
			break
		}
	}

	return snapshot, nil
}

// collectPeriod reads every node and link attribute for the period
// just solved. Entity ordinals are 1-based.
func (n *Network) collectPeriod(clock int64) (Period, error) {
	period := Period{
		Time:  clock,
		Nodes: make([]NodeRecord, 0, n.nodeCount),
		Links: make([]LinkRecord, 0, n.linkCount),
	}

	for i := 1; i <= n.nodeCount; i++ {
		rec, err := n.collectNode(i)
		if err != nil {
			return Period{}, err
		}
		period.Nodes = append(period.Nodes, rec)
	}
	for i := 1; i <= n.linkCount; i++ {
		rec, err := n.collectLink(i)
		if err != nil {
			return Period{}, err
		}
		period.Links = append(period.Links, rec)
	}
	return period, nil
}

func (n *Network) collectNode(index int) (NodeRecord, error) {
	rec := NodeRecord{}

	id, err := n.engine.NodeID(index)
	if err != nil {
		return rec, err
	}
	rec.ID = id

	nodeType, err := n.engine.NodeType(index)
	if err != nil {
		return rec, err
	}
	rec.Type = nodeType

	values := []struct {
		param NodeParam
		dst   *float64
	}{
		{NodeElevation, &rec.Elevation},
		{NodePressure, &rec.Pressure},
		{NodeHead, &rec.Head},
		{NodeBaseDemand, &rec.BaseDemand},
		{NodeDemand, &rec.Demand},
		{NodeQuality, &rec.Quality},
	}
	for _, v := range values {
		value, err := n.engine.NodeValue(index, v.param)
		if err != nil {
			return rec, err
		}
		*v.dst = value
	}
	return rec, nil
}

func (n *Network) collectLink(index int) (LinkRecord, error) {
	rec := LinkRecord{}

	id, err := n.engine.LinkID(index)
	if err != nil {
		return rec, err
	}
	rec.ID = id

	values := []struct {
		param LinkParam
		dst   *float64
	}{
		{LinkDiameter, &rec.Diameter},
		{LinkLength, &rec.Length},
		{LinkVelocity, &rec.Velocity},
		{LinkFlow, &rec.Flow},
		{LinkHeadloss, &rec.Headloss},
		{LinkStatus, &rec.Status},
	}
	for _, v := range values {
		value, err := n.engine.LinkValue(index, v.param)
		if err != nil {
			return rec, err
		}
		*v.dst = value
	}
	return rec, nil
}

// Close releases the hydraulics solver and the solver session.
func (n *Network) Close() error {
	hErr := n.engine.CloseHydraulics()
	cErr := n.engine.Close()
	if hErr != nil {
		return fmt.Errorf("failed to close hydraulics solver: %w", hErr)
	}
	if cErr != nil {
		return fmt.Errorf("failed to close solver session: %w", cErr)
	}
	return nil
}
