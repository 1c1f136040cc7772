package sim

import (
	"os"
	"time"

	"github.com/edp1096/spicerun/internal/consts"
	"github.com/edp1096/spicerun/pkg/measure"
	"github.com/edp1096/spicerun/pkg/netlist"
)

// Config controls one Simulator. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	Executable string        // name or path of the ngspice binary
	Timeout    time.Duration // zero disables the deadline
	TempDir    string        // directory for temporary netlists and rawfiles
	ExtraFlags []string      // appended after the netlist argument

	// LenientSweep treats a malformed .step directive as absent instead of
	// failing the run.
	LenientSweep bool

	// KeepRawDir, when set, receives a copy of the rawfile before cleanup.
	KeepRawDir string
}

func DefaultConfig() Config {
	return Config{
		Executable: consts.Executable,
		Timeout:    consts.DefaultTimeout,
		TempDir:    os.TempDir(),
	}
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithRunner replaces process execution, typically with a fake in tests.
func WithRunner(r Runner) Option {
	return func(s *Simulator) { s.runner = r }
}

// WithExtractor replaces the measurement extractor.
func WithExtractor(e *measure.Extractor) Option {
	return func(s *Simulator) { s.extractor = e }
}

// WithLiteralParser sets the scale suffixes used for .step and .tran values.
func WithLiteralParser(p netlist.LiteralParser) Option {
	return func(s *Simulator) { s.lit = &p }
}
