package hydraulic

import (
	"fmt"
	"io"
)

// NodeRecord holds one node's attributes for one hydraulic period.
type NodeRecord struct {
	ID         string
	Type       NodeType
	Elevation  float64
	Pressure   float64
	Head       float64
	BaseDemand float64
	Demand     float64
	Quality    float64
}

// LinkRecord holds one link's attributes for one hydraulic period.
type LinkRecord struct {
	ID       string
	Diameter float64
	Length   float64
	Velocity float64
	Flow     float64
	Headloss float64
	Status   float64
}

// Period is the state of every node and link after one hydraulic solve.
type Period struct {
	Time  int64 // simulation clock, seconds
	Nodes []NodeRecord
	Links []LinkRecord
}

// Snapshot is the result of one full extended-period simulation. It is
// freshly allocated by every RunSimulation call and never mutated
// afterwards.
type Snapshot struct {
	Periods []Period
}

// First returns the first hydraulic period, which a steady analysis
// treats as authoritative.
func (s *Snapshot) First() (*Period, bool) {
	if s == nil || len(s.Periods) == 0 {
		return nil, false
	}
	return &s.Periods[0], true
}

// WriteProperties writes a formatted node and link table for the first
// period, mirroring the classic solver report layout.
func (s *Snapshot) WriteProperties(w io.Writer) error {
	period, ok := s.First()
	if !ok {
		return fmt.Errorf("snapshot has no periods")
	}

	if _, err := fmt.Fprintf(w, "\nNetwork nodes\n%-8s %9s %9s %9s %9s %9s %9s\n",
		"Node", "Elevation", "Pressure", "Head", "Base-Dem", "Demand", "Quality"); err != nil {
		return err
	}
	for _, n := range period.Nodes {
		if _, err := fmt.Fprintf(w, "%-8s %9.2f %9.2f %9.2f %9.2f %9.2f %9.2f\n",
			n.ID, n.Elevation, n.Pressure, n.Head, n.BaseDemand, n.Demand, n.Quality); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\nNetwork pipes\n%-8s %9s %9s %9s %9s\n",
		"Link", "Diameter", "Length", "Velocity", "Flow"); err != nil {
		return err
	}
	for _, l := range period.Links {
		if _, err := fmt.Fprintf(w, "%-8s %9.2f %9.2f %9.2f %9.2f\n",
			l.ID, l.Diameter, l.Length, l.Velocity, l.Flow); err != nil {
			return err
		}
	}
	return nil
}
