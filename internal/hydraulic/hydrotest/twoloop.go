package hydrotest

import "github.com/hydronet/optinet/internal/hydraulic"

// TwoLoop returns a fake engine loaded with the Alperovits & Shamir
// two-loop benchmark network: one reservoir feeding six junctions over
// eight pipes of 1000 m each. Pressures and velocities are fixed at
// values inside the default feasibility bounds, so the unmodified
// fixture evaluates penalty-free.
func TwoLoop() *Engine {
	return &Engine{
		Nodes: []Node{
			{ID: "1", Type: hydraulic.NodeReservoir, Elevation: 210, Head: 210},
			{ID: "2", Type: hydraulic.NodeJunction, Elevation: 150, BaseDemand: 100, Demand: 100, Pressure: 53.25, Head: 203.25},
			{ID: "3", Type: hydraulic.NodeJunction, Elevation: 160, BaseDemand: 100, Demand: 100, Pressure: 30.46, Head: 190.46},
			{ID: "4", Type: hydraulic.NodeJunction, Elevation: 155, BaseDemand: 120, Demand: 120, Pressure: 43.45, Head: 198.45},
			{ID: "5", Type: hydraulic.NodeJunction, Elevation: 150, BaseDemand: 270, Demand: 270, Pressure: 33.81, Head: 183.81},
			{ID: "6", Type: hydraulic.NodeJunction, Elevation: 165, BaseDemand: 330, Demand: 330, Pressure: 30.44, Head: 195.44},
			{ID: "7", Type: hydraulic.NodeJunction, Elevation: 160, BaseDemand: 200, Demand: 200, Pressure: 30.55, Head: 190.55},
		},
		Links: []Link{
			{ID: "1", Diameter: 457, Length: 1000, Velocity: 1.91, Flow: 1120, Status: 1},
			{ID: "2", Diameter: 254, Length: 1000, Velocity: 1.45, Flow: 270, Status: 1},
			{ID: "3", Diameter: 406, Length: 1000, Velocity: 1.72, Flow: 750, Status: 1},
			{ID: "4", Diameter: 102, Length: 1000, Velocity: 0.67, Flow: 20, Status: 1},
			{ID: "5", Diameter: 406, Length: 1000, Velocity: 1.41, Flow: 610, Status: 1},
			{ID: "6", Diameter: 254, Length: 1000, Velocity: 1.05, Flow: 200, Status: 1},
			{ID: "7", Diameter: 254, Length: 1000, Velocity: 1.34, Flow: 250, Status: 1},
			{ID: "8", Diameter: 25, Length: 1000, Velocity: 0.41, Flow: 5, Status: 1},
		},
	}
}

// TwoLoopDiameters is the best-known discrete diameter assignment for
// the two-loop network. It has no optimality proof attached; tests use
// it strictly as a regression fixture.
var TwoLoopDiameters = []float64{457, 254, 406, 102, 406, 254, 254, 25}
