package model

import (
	"fmt"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"gonum.org/v1/gonum/mat"
)

// rankTol is the relative singular value threshold used to assess the rank of the diffuse basis
const rankTol = 1e-10

// Validate checks that the dimensions reported by m are consistent.
// It returns error wrapping ssf.ErrInvalidModel if either of the following conditions is met:
//   - state dimension is not positive
//   - noise dimensions are inconsistent with HasR and HasW
//   - noise selection indices are out of range
//   - diffuse dimension exceeds state dimension or the diffuse basis is rank deficient
func Validate(m ssf.Model) error {
	r := m.StateDim()
	if r <= 0 {
		return fmt.Errorf("%w: state dimension %d", ssf.ErrInvalidModel, r)
	}

	nres, ncount := m.ResDim(), m.ResCount()
	if nres < 0 || ncount < 0 {
		return fmt.Errorf("%w: noise dimensions [%d x %d]", ssf.ErrInvalidModel, nres, ncount)
	}

	if !m.HasR() && nres != r && ncount > 0 {
		return fmt.Errorf("%w: noise dimension %d != state dimension %d", ssf.ErrInvalidModel, nres, r)
	}

	if m.HasR() {
		sel := m.R(0)
		if len(sel) != nres {
			return fmt.Errorf("%w: noise selection length %d != %d", ssf.ErrInvalidModel, len(sel), nres)
		}
		for _, i := range sel {
			if i < 0 || i >= r {
				return fmt.Errorf("%w: noise selection index %d", ssf.ErrInvalidModel, i)
			}
		}
	}

	if !m.HasW() && nres != ncount {
		return fmt.Errorf("%w: noise count %d != noise dimension %d", ssf.ErrInvalidModel, ncount, nres)
	}

	d := m.DiffuseDim()
	if d < 0 || d > r {
		return fmt.Errorf("%w: diffuse dimension %d", ssf.ErrInvalidModel, d)
	}

	if d > 0 {
		b := mat.NewDense(r, d, nil)
		m.DiffuseConstraints(b)

		var svd mat.SVD
		if ok := svd.Factorize(b, mat.SVDNone); !ok {
			return fmt.Errorf("%w: diffuse basis factorization failed", ssf.ErrInvalidModel)
		}
		vals := svd.Values(nil)
		if vals[0] == 0 || vals[d-1] <= rankTol*vals[0] {
			return fmt.Errorf("%w: diffuse basis is rank deficient", ssf.ErrInvalidModel)
		}
	}

	return nil
}
