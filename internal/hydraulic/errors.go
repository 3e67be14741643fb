package hydraulic

import "fmt"

// ConfigurationError indicates an unusable topology input, detected
// before any solver session opens.
type ConfigurationError struct {
	Path   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Path, e.Reason)
}

// DimensionMismatchError indicates a diameter assignment whose length
// does not match the network's link count.
type DimensionMismatchError struct {
	Want int // link count
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: network has %d links, got %d diameters", e.Want, e.Got)
}

// SolverError indicates a failure reported by the external engine.
type SolverError struct {
	Op   string // engine operation that failed
	Code int    // engine error code, 0 when unknown
	Err  error
}

func (e *SolverError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("solver error: %s: code %d: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("solver error: %s: %v", e.Op, e.Err)
}

func (e *SolverError) Unwrap() error {
	return e.Err
}
