// Package hydrotest provides a deterministic in-memory Engine for
// tests. It answers attribute queries from fixture tables and never
// solves any hydraulics.
package hydrotest

import (
	"errors"

	"github.com/hydronet/optinet/internal/hydraulic"
)

// Node is a fixture node.
type Node struct {
	ID         string
	Type       hydraulic.NodeType
	Elevation  float64
	Pressure   float64
	Head       float64
	BaseDemand float64
	Demand     float64
	Quality    float64
}

// Link is a fixture link.
type Link struct {
	ID       string
	Diameter float64
	Length   float64
	Velocity float64
	Flow     float64
	Headloss float64
	Status   float64
}

// Engine is a fake hydraulic.Engine backed by fixture tables. The zero
// value is unusable; construct it with fixture nodes and links. One
// period is simulated unless PeriodCount says otherwise.
type Engine struct {
	Nodes       []Node
	Links       []Link
	PeriodCount int

	// SolveErr, when set, is returned by SolvePeriod once SolveCalls
	// reaches SolveErrAfter (1-based; 0 means the first call). A
	// non-zero SolveErrUntil bounds the fault window; later calls
	// succeed again.
	SolveErr      error
	SolveErrAfter int
	SolveErrUntil int

	// NodeValueFn and LinkValueFn optionally override attribute reads.
	NodeValueFn func(index int, param hydraulic.NodeParam) (float64, bool)
	LinkValueFn func(index int, param hydraulic.LinkParam) (float64, bool)

	Opened         bool
	HydraulicsOpen bool
	Closed         bool
	InitCalls      int
	SolveCalls     int
	DiameterWrites int

	period int
}

func (e *Engine) Open(inputPath, reportPath string) error {
	e.Opened = true
	return nil
}

func (e *Engine) OpenHydraulics() error {
	e.HydraulicsOpen = true
	return nil
}

func (e *Engine) Count(code hydraulic.CountCode) (int, error) {
	switch code {
	case hydraulic.CountNodes:
		return len(e.Nodes), nil
	case hydraulic.CountLinks:
		return len(e.Links), nil
	case hydraulic.CountTanks:
		tanks := 0
		for _, n := range e.Nodes {
			if n.Type.IsSource() {
				tanks++
			}
		}
		return tanks, nil
	default:
		return 0, &hydraulic.SolverError{Op: "Count", Err: errors.New("unknown count code")}
	}
}

func (e *Engine) node(index int) (*Node, error) {
	if index < 1 || index > len(e.Nodes) {
		return nil, &hydraulic.SolverError{Op: "node", Code: 203, Err: errors.New("node index out of range")}
	}
	return &e.Nodes[index-1], nil
}

func (e *Engine) link(index int) (*Link, error) {
	if index < 1 || index > len(e.Links) {
		return nil, &hydraulic.SolverError{Op: "link", Code: 204, Err: errors.New("link index out of range")}
	}
	return &e.Links[index-1], nil
}

func (e *Engine) NodeID(index int) (string, error) {
	n, err := e.node(index)
	if err != nil {
		return "", err
	}
	return n.ID, nil
}

func (e *Engine) NodeType(index int) (hydraulic.NodeType, error) {
	n, err := e.node(index)
	if err != nil {
		return 0, err
	}
	return n.Type, nil
}

func (e *Engine) NodeValue(index int, param hydraulic.NodeParam) (float64, error) {
	if e.NodeValueFn != nil {
		if v, ok := e.NodeValueFn(index, param); ok {
			return v, nil
		}
	}
	n, err := e.node(index)
	if err != nil {
		return 0, err
	}
	switch param {
	case hydraulic.NodeElevation:
		return n.Elevation, nil
	case hydraulic.NodePressure:
		return n.Pressure, nil
	case hydraulic.NodeHead:
		return n.Head, nil
	case hydraulic.NodeBaseDemand:
		return n.BaseDemand, nil
	case hydraulic.NodeDemand:
		return n.Demand, nil
	case hydraulic.NodeQuality:
		return n.Quality, nil
	default:
		return 0, &hydraulic.SolverError{Op: "NodeValue", Err: errors.New("unknown node parameter")}
	}
}

func (e *Engine) LinkID(index int) (string, error) {
	l, err := e.link(index)
	if err != nil {
		return "", err
	}
	return l.ID, nil
}

func (e *Engine) LinkValue(index int, param hydraulic.LinkParam) (float64, error) {
	if e.LinkValueFn != nil {
		if v, ok := e.LinkValueFn(index, param); ok {
			return v, nil
		}
	}
	l, err := e.link(index)
	if err != nil {
		return 0, err
	}
	switch param {
	case hydraulic.LinkDiameter:
		return l.Diameter, nil
	case hydraulic.LinkLength:
		return l.Length, nil
	case hydraulic.LinkVelocity:
		return l.Velocity, nil
	case hydraulic.LinkFlow:
		return l.Flow, nil
	case hydraulic.LinkHeadloss:
		return l.Headloss, nil
	case hydraulic.LinkStatus:
		return l.Status, nil
	default:
		return 0, &hydraulic.SolverError{Op: "LinkValue", Err: errors.New("unknown link parameter")}
	}
}

func (e *Engine) SetLinkValue(index int, param hydraulic.LinkParam, value float64) error {
	l, err := e.link(index)
	if err != nil {
		return err
	}
	if param != hydraulic.LinkDiameter {
		return &hydraulic.SolverError{Op: "SetLinkValue", Err: errors.New("fake engine only supports diameter writes")}
	}
	l.Diameter = value
	e.DiameterWrites++
	return nil
}

func (e *Engine) InitHydraulics(saveResults bool) error {
	e.InitCalls++
	e.period = 0
	return nil
}

func (e *Engine) SolvePeriod() (int64, error) {
	e.SolveCalls++
	if e.SolveErr != nil && e.SolveCalls >= max(e.SolveErrAfter, 1) &&
		(e.SolveErrUntil == 0 || e.SolveCalls <= e.SolveErrUntil) {
		return 0, e.SolveErr
	}
	return int64(e.period) * 3600, nil
}

func (e *Engine) AdvancePeriod() (int64, error) {
	e.period++
	periods := e.PeriodCount
	if periods <= 0 {
		periods = 1
	}
	if e.period >= periods {
		return 0, nil
	}
	return 3600, nil
}

func (e *Engine) CloseHydraulics() error {
	e.HydraulicsOpen = false
	return nil
}

func (e *Engine) Close() error {
	e.Closed = true
	return nil
}
