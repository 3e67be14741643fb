//go:build epanet

package hydraulic

/*
#cgo LDFLAGS: -lepanet2
#include <stdlib.h>
#include "epanet2_2.h"
*/
import "C"

import (
	"errors"
	"unsafe"
)

// epanetEngine binds the EPANET 2.2 project API. Each instance owns
// its own EN_Project handle, so independent engines can run
// simulations side by side.
type epanetEngine struct {
	project C.EN_Project
}

// NewEPANETEngine creates an independent EPANET solver instance.
func NewEPANETEngine() (Engine, error) {
	e := &epanetEngine{}
	if code := C.EN_createproject(&e.project); code != 0 {
		return nil, epanetError("EN_createproject", int(code))
	}
	return e, nil
}

// epanetError resolves an engine error code to a SolverError with the
// toolkit's own message text.
func epanetError(op string, code int) error {
	buf := make([]C.char, C.EN_MAXMSG+1)
	C.EN_geterror(C.int(code), &buf[0], C.EN_MAXMSG)
	return &SolverError{Op: op, Code: code, Err: errors.New(C.GoString(&buf[0]))}
}

func (e *epanetEngine) Open(inputPath, reportPath string) error {
	cInput := C.CString(inputPath)
	cReport := C.CString(reportPath)
	cOutput := C.CString("")
	defer C.free(unsafe.Pointer(cInput))
	defer C.free(unsafe.Pointer(cReport))
	defer C.free(unsafe.Pointer(cOutput))

	if code := C.EN_open(e.project, cInput, cReport, cOutput); code != 0 {
		return epanetError("EN_open", int(code))
	}
	return nil
}

func (e *epanetEngine) OpenHydraulics() error {
	if code := C.EN_openH(e.project); code != 0 {
		return epanetError("EN_openH", int(code))
	}
	return nil
}

func (e *epanetEngine) Count(code CountCode) (int, error) {
	var count C.int
	if rc := C.EN_getcount(e.project, C.int(code), &count); rc != 0 {
		return 0, epanetError("EN_getcount", int(rc))
	}
	return int(count), nil
}

func (e *epanetEngine) NodeID(index int) (string, error) {
	buf := make([]C.char, C.EN_MAXID+1)
	if rc := C.EN_getnodeid(e.project, C.int(index), &buf[0]); rc != 0 {
		return "", epanetError("EN_getnodeid", int(rc))
	}
	return C.GoString(&buf[0]), nil
}

func (e *epanetEngine) NodeType(index int) (NodeType, error) {
	var nodeType C.int
	if rc := C.EN_getnodetype(e.project, C.int(index), &nodeType); rc != 0 {
		return 0, epanetError("EN_getnodetype", int(rc))
	}
	return NodeType(nodeType), nil
}

func (e *epanetEngine) NodeValue(index int, param NodeParam) (float64, error) {
	var value C.double
	if rc := C.EN_getnodevalue(e.project, C.int(index), C.int(param), &value); rc != 0 {
		return 0, epanetError("EN_getnodevalue", int(rc))
	}
	return float64(value), nil
}

func (e *epanetEngine) LinkID(index int) (string, error) {
	buf := make([]C.char, C.EN_MAXID+1)
	if rc := C.EN_getlinkid(e.project, C.int(index), &buf[0]); rc != 0 {
		return "", epanetError("EN_getlinkid", int(rc))
	}
	return C.GoString(&buf[0]), nil
}

func (e *epanetEngine) LinkValue(index int, param LinkParam) (float64, error) {
	var value C.double
	if rc := C.EN_getlinkvalue(e.project, C.int(index), C.int(param), &value); rc != 0 {
		return 0, epanetError("EN_getlinkvalue", int(rc))
	}
	return float64(value), nil
}

func (e *epanetEngine) SetLinkValue(index int, param LinkParam, value float64) error {
	if rc := C.EN_setlinkvalue(e.project, C.int(index), C.int(param), C.double(value)); rc != 0 {
		return epanetError("EN_setlinkvalue", int(rc))
	}
	return nil
}

func (e *epanetEngine) InitHydraulics(saveResults bool) error {
	flag := C.EN_NOSAVE
	if saveResults {
		flag = C.EN_SAVE
	}
	if rc := C.EN_initH(e.project, C.int(flag)); rc != 0 {
		return epanetError("EN_initH", int(rc))
	}
	return nil
}

func (e *epanetEngine) SolvePeriod() (int64, error) {
	var clock C.long
	if rc := C.EN_runH(e.project, &clock); rc != 0 {
		return 0, epanetError("EN_runH", int(rc))
	}
	return int64(clock), nil
}

func (e *epanetEngine) AdvancePeriod() (int64, error) {
	var step C.long
	if rc := C.EN_nextH(e.project, &step); rc != 0 {
		return 0, epanetError("EN_nextH", int(rc))
	}
	return int64(step), nil
}

func (e *epanetEngine) CloseHydraulics() error {
	if rc := C.EN_closeH(e.project); rc != 0 {
		return epanetError("EN_closeH", int(rc))
	}
	return nil
}

func (e *epanetEngine) Close() error {
	if rc := C.EN_close(e.project); rc != 0 {
		return epanetError("EN_close", int(rc))
	}
	if rc := C.EN_deleteproject(e.project); rc != 0 {
		return epanetError("EN_deleteproject", int(rc))
	}
	return nil
}
