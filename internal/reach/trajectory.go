package reach

import (
	"math"
	"sort"

	"github.com/indivisibleatom/toppra/internal/geompath"
)

// Trajectory is a time parameterization of a path: the solved profile
// integrated into a monotonic time-position mapping. Within a stage the
// path acceleration is constant, so sampling uses closed-form kinematics
// rather than interpolation of the grid samples.
type Trajectory struct {
	path  geompath.Path
	s     []float64
	sd    []float64
	accel []float64
	times []float64
}

// NewTrajectory integrates a solved profile into a trajectory. Stage
// traversal time comes from the constant-acceleration relation
// ds = (sd_i + sd_{i+1})/2 * dt, which also covers a single resting
// endpoint. A stage resting at both endpoints has no finite traversal time
// and yields *StalledError.
func NewTrajectory(path geompath.Path, res *Result) (*Trajectory, error) {
	if path == nil || res == nil {
		return nil, &ConfigError{Msg: "nil path or result"}
	}
	n := len(res.Gridpoints)
	if n < 2 || len(res.Velocity) != n || len(res.Accel) != n-1 {
		return nil, &ConfigError{Msg: "result slices are inconsistent"}
	}

	times := make([]float64, n)
	for i := 0; i+1 < n; i++ {
		sum := res.Velocity[i] + res.Velocity[i+1]
		if sum <= 0 {
			return nil, &StalledError{Stage: i}
		}
		dt := 2 * (res.Gridpoints[i+1] - res.Gridpoints[i]) / sum
		times[i+1] = times[i] + dt
	}
	return &Trajectory{
		path:  path,
		s:     append([]float64(nil), res.Gridpoints...),
		sd:    append([]float64(nil), res.Velocity...),
		accel: append([]float64(nil), res.Accel...),
		times: times,
	}, nil
}

// Duration returns the total traversal time.
func (tr *Trajectory) Duration() float64 {
	return tr.times[len(tr.times)-1]
}

// Times returns the arrival time at each grid point.
func (tr *Trajectory) Times() []float64 {
	return append([]float64(nil), tr.times...)
}

// stage locates the stage containing time t and the offset into it, with t
// clamped to the trajectory's time span.
func (tr *Trajectory) stage(t float64) (int, float64) {
	if t <= 0 {
		return 0, 0
	}
	last := len(tr.times) - 1
	if t >= tr.times[last] {
		return last - 1, tr.times[last] - tr.times[last-1]
	}
	i := sort.SearchFloat64s(tr.times, t)
	if i > 0 && tr.times[i] > t {
		i--
	}
	if i > last-1 {
		i = last - 1
	}
	return i, t - tr.times[i]
}

// PathPos returns the path position at time t.
func (tr *Trajectory) PathPos(t float64) float64 {
	i, tau := tr.stage(t)
	s := tr.s[i] + tr.sd[i]*tau + 0.5*tr.accel[i]*tau*tau
	return math.Min(tr.s[i+1], math.Max(tr.s[i], s))
}

// PathVel returns the path velocity at time t.
func (tr *Trajectory) PathVel(t float64) float64 {
	i, tau := tr.stage(t)
	return tr.sd[i] + tr.accel[i]*tau
}

// PathAccel returns the path acceleration at time t.
func (tr *Trajectory) PathAccel(t float64) float64 {
	i, _ := tr.stage(t)
	return tr.accel[i]
}

// Sample returns the configuration-space position, velocity, and
// acceleration at time t by the chain rule: qd = q'(s)*sdot and
// qdd = q''(s)*sdot^2 + q'(s)*sddot.
func (tr *Trajectory) Sample(t float64) (q, qd, qdd []float64) {
	i, tau := tr.stage(t)
	s := tr.s[i] + tr.sd[i]*tau + 0.5*tr.accel[i]*tau*tau
	s = math.Min(tr.s[i+1], math.Max(tr.s[i], s))
	sdot := tr.sd[i] + tr.accel[i]*tau

	q = tr.path.Eval(s)
	d1 := tr.path.Deriv(s, 1)
	d2 := tr.path.Deriv(s, 2)
	qd = make([]float64, len(q))
	qdd = make([]float64, len(q))
	for j := range q {
		qd[j] = d1[j] * sdot
		qdd[j] = d2[j]*sdot*sdot + d1[j]*tr.accel[i]
	}
	return q, qd, qdd
}
