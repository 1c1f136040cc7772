package consts

import "time"

const (
	Executable     = "ngspice"        // default simulator binary
	DefaultTimeout = 60 * time.Second // per-invocation wall clock limit
	WaitDelay      = 5 * time.Second  // pipe drain limit after the process is killed
	NetlistExt     = ".cir"
	RawfileExt     = ".raw"
	TempPrefix     = "spicerun-"
)
