package sim

import (
	"fmt"
	"math"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/data"
	"github.com/jdemetra/jdemetra-core-sub001/model"
	"github.com/jdemetra/jdemetra-core-sub001/noise"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Config configures the simulation
type Config struct {
	// Seed seeds all the random sources of the simulation
	Seed uint64
	// Missing lists the positions of the observations to be removed
	Missing []int
	// Diffuse holds the values of the diffuse initial elements; nil means zeros
	Diffuse []float64
}

// Simulation is a simulated series along with the states which generated it
type Simulation struct {
	// Series holds the observations
	Series *data.Series
	// States holds the states in its rows [n x StateDim]
	States *mat.Dense
	// Noise holds the measurement noise
	Noise []float64
}

// Simulate draws n observations from model m:
//
//	a[0] = B*c.Diffuse + N(0, Pf0)
//	y[t] = Z*a[t] + N(0, H)
//	a[t+1] = T*a[t] + R*W*N(0, Q)
//
// A nil config uses seed 0, no missing observations and zero diffuse elements.
// It returns error if the model is invalid or if the config does not match the model.
func Simulate(m ssf.Model, n int, c *Config) (*Simulation, error) {
	if m == nil {
		return nil, fmt.Errorf("invalid model: %v", m)
	}
	if err := model.Validate(m); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("invalid number of observations: %d", n)
	}
	if c == nil {
		c = &Config{}
	}

	r, d := m.StateDim(), m.DiffuseDim()
	if c.Diffuse != nil && len(c.Diffuse) != d {
		return nil, fmt.Errorf("invalid diffuse values length: %d != %d", len(c.Diffuse), d)
	}

	master := rand.New(rand.NewSource(c.Seed))

	pf0 := mat.NewSymDense(r, nil)
	m.Pf0(pf0)
	init, err := noise.New(pf0, master.Uint64())
	if err != nil {
		return nil, fmt.Errorf("invalid initial covariance: %w", err)
	}
	a := mat.VecDenseCopyOf(init.Sample())
	if c.Diffuse != nil {
		b := mat.NewDense(r, d, nil)
		m.DiffuseConstraints(b)
		bd := mat.NewVecDense(r, nil)
		bd.MulVec(b, mat.NewVecDense(d, c.Diffuse))
		a.AddVec(a, bd)
	}

	ws := model.NewWorkspace(m)
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(master.Uint64())}
	un, err := innovations(ws, master.Uint64())
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		States: mat.NewDense(n, r, nil),
		Noise:  make([]float64, n),
	}
	y := make([]float64, n)
	g := mat.NewVecDense(r, nil)
	for pos := 0; pos < n; pos++ {
		ws.Move(pos)
		s.States.SetRow(pos, a.RawVector().Data)
		s.Noise[pos] = math.Sqrt(ws.H()) * norm.Rand()
		y[pos] = ws.ZX(a) + s.Noise[pos]

		if pos > 0 && !m.IsTransitionResidualTimeInvariant() {
			if un, err = innovations(ws, master.Uint64()); err != nil {
				return nil, fmt.Errorf("position %d: %w", pos, err)
			}
		}
		ws.TX(a)
		if m.ResCount() > 0 {
			g.MulVec(ws.Loading(), un.Sample())
			a.AddVec(a, g)
		}
	}

	s.Series = data.NewSeries(y)
	if err := s.Series.SetMissing(c.Missing...); err != nil {
		return nil, err
	}

	return s, nil
}

// innovations returns the transition noise at the workspace position
func innovations(ws *model.Workspace, seed uint64) (noise.Noise, error) {
	if ws.Q() == nil {
		return noise.NewZero(0)
	}

	un, err := noise.New(ws.Q(), seed)
	if err != nil {
		return nil, fmt.Errorf("invalid innovation covariance: %w", err)
	}

	return un, nil
}
