//go:build !epanet

package hydraulic

import "fmt"

// NewEPANETEngine is only available when the binary is built against
// the EPANET toolkit library.
func NewEPANETEngine() (Engine, error) {
	return nil, fmt.Errorf("epanet engine unavailable in this build; rebuild with -tags epanet")
}
