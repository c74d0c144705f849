package mpm

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func randomMat2(rng *rand.Rand) Mat2 {
	return Mat2{
		A: rng.Float32()*4 - 2,
		B: rng.Float32()*4 - 2,
		C: rng.Float32()*4 - 2,
		D: rng.Float32()*4 - 2,
	}
}

func mat2Dist(a, b Mat2) float64 {
	return math.Max(
		math.Max(math.Abs(float64(a.A-b.A)), math.Abs(float64(a.B-b.B))),
		math.Max(math.Abs(float64(a.C-b.C)), math.Abs(float64(a.D-b.D))),
	)
}

func TestPolarDecomp(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		m := randomMat2(rng)
		r, s := polarDecomp(m)

		// r is a rotation: orthogonal with determinant 1.
		if d := mat2Dist(r.Mul(r.Transpose()), Identity()); d > 1e-4 {
			t.Fatalf("case %d: r not orthogonal, r*r^T off by %v", i, d)
		}
		if dd := math.Abs(float64(r.Det()) - 1); dd > 1e-4 {
			t.Fatalf("case %d: det(r) = %v, want 1", i, r.Det())
		}

		// s is symmetric and r*s reconstructs m.
		if d := math.Abs(float64(s.B - s.C)); d > 1e-4 {
			t.Fatalf("case %d: s not symmetric, off-diagonal differs by %v", i, d)
		}
		if d := mat2Dist(r.Mul(s), m); d > 1e-4 {
			t.Fatalf("case %d: r*s off by %v from m", i, d)
		}
	}
}

func TestPolarDecompIdentity(t *testing.T) {
	r, s := polarDecomp(Identity())
	if mat2Dist(r, Identity()) > 1e-6 || mat2Dist(s, Identity()) > 1e-6 {
		t.Errorf("polar decomposition of identity: r=%+v s=%+v", r, s)
	}
}

func TestSVDReconstruction(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		m := randomMat2(rng)
		u, sig, v := svd(m)

		if d := mat2Dist(u.Mul(u.Transpose()), Identity()); d > 1e-4 {
			t.Fatalf("case %d: u not orthogonal, off by %v", i, d)
		}
		if d := mat2Dist(v.Mul(v.Transpose()), Identity()); d > 1e-4 {
			t.Fatalf("case %d: v not orthogonal, off by %v", i, d)
		}
		if d := mat2Dist(u.Mul(Diag(sig)).Mul(v.Transpose()), m); d > 1e-4 {
			t.Fatalf("case %d: u*sig*v^T off by %v from m", i, d)
		}
	}
}

// TestSVDAgainstGonum cross-checks singular value magnitudes against
// gonum's general SVD. The 2x2 closed form keeps the sign of reflections
// in sigma, so compare absolute values.
func TestSVDAgainstGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	for i := 0; i < 100; i++ {
		m := randomMat2(rng)
		_, sig, _ := svd(m)

		got := []float64{
			math.Abs(float64(sig.X)),
			math.Abs(float64(sig.Y)),
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(got)))

		dense := mat.NewDense(2, 2, []float64{
			float64(m.A), float64(m.B),
			float64(m.C), float64(m.D),
		})
		var ref mat.SVD
		if !ref.Factorize(dense, mat.SVDNone) {
			t.Fatalf("case %d: gonum SVD failed to factorize", i)
		}
		want := ref.Values(nil)

		for k := 0; k < 2; k++ {
			if math.Abs(got[k]-want[k]) > 1e-4 {
				t.Fatalf("case %d: singular values %v, gonum %v", i, got, want)
			}
		}
	}
}

func TestClampStretchIdempotent(t *testing.T) {
	lo, hi := float32(1-2.5e-2), float32(1+7.5e-3)
	tests := []Vec2{
		{0.5, 0.5},
		{1.5, 0.9},
		{1.0, 1.0},
		{0.98, 1.004},
		{2.0, 0.1},
	}
	for _, sig := range tests {
		once := clampStretch(sig, lo, hi)
		twice := clampStretch(once, lo, hi)
		if once != twice {
			t.Errorf("clamp not idempotent for %+v: once=%+v twice=%+v", sig, once, twice)
		}
		if once.X < lo || once.X > hi || once.Y < lo || once.Y > hi {
			t.Errorf("clamp of %+v left range: %+v", sig, once)
		}
	}
}
