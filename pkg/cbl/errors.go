package cbl

import "github.com/hyp3rd/ewrap"

var (
	// ErrNilHandle is returned by Check when a native call produced no object.
	ErrNilHandle = ewrap.New("cbl: native call returned a nil handle")

	// ErrNilRegister is returned by Listen when no registration function is
	// supplied.
	ErrNilRegister = ewrap.New("cbl: nil listener registration function")

	// ErrListenerRejected is returned by Listen when the native registration
	// call returned no token.
	ErrListenerRejected = ewrap.New("cbl: native listener registration failed")

	// ErrLeak is returned by Baseline.Check when more native objects are
	// alive than when the baseline was taken.
	ErrLeak = ewrap.New("cbl: native objects leaked")
)
