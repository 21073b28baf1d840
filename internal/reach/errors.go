package reach

import (
	"fmt"
	"math"
)

// ConfigError reports a malformed problem: bad grid or boundary data, or a
// constraint set that leaves the velocity axis unbounded. These are caller
// mistakes, not properties of the dynamics.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "reach: " + e.Msg
}

// InfeasibleError reports that no valid parameterization exists. Index is
// the grid point where the analysis failed: the highest index whose
// controllable set is empty, or the point where a boundary value or forward
// step fell outside its set.
type InfeasibleError struct {
	Index int
	// Lo, Hi delimit the set the offending value had to land in. NaN when
	// the set itself was empty.
	Lo, Hi float64
	// X is the offending value, NaN when emptiness itself is the failure.
	X float64
}

func (e *InfeasibleError) Error() string {
	if math.IsNaN(e.X) {
		return fmt.Sprintf("reach: no parameterization: controllable set empty at grid index %d", e.Index)
	}
	return fmt.Sprintf("reach: no parameterization: x=%g outside [%g, %g] at grid index %d", e.X, e.Lo, e.Hi, e.Index)
}

// StalledError reports a zero-velocity stage during time integration: both
// stage endpoints at rest means no finite traversal time exists.
type StalledError struct {
	Stage int
}

func (e *StalledError) Error() string {
	return fmt.Sprintf("reach: profile stalls at stage %d: both endpoint velocities are zero", e.Stage)
}
