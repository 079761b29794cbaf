package loadcell

import (
	"fmt"

	"github.com/edaniels/golog"
	"gonum.org/v1/gonum/mat"

	"github.com/openlimb/sensecore/pkg/config"
)

const (
	numChannels = 6

	adcOffset = 2048.0 // mid-scale of the 12-bit ADC
	adcRange  = 4095.0 // full 12-bit span

	// DefaultIterations is the number of samples averaged by Calibrate.
	DefaultIterations = 10
)

// Loadcell converts six raw strain channels into calibrated forces and
// moments (fx, fy, fz, mx, my, mz) and owns the zero-reference bias.
//
// The decoupling matrix is pre-inverted calibration data supplied at
// construction and never changes afterwards. The zero offset starts at the
// all-zero vector and is only ever set by a completed Calibrate run or
// cleared by Reset.
//
// All methods assume a single-threaded control loop; callers that share an
// engine across goroutines must serialize access themselves.
type Loadcell struct {
	src RawChannelSource
	log golog.Logger

	gain   float64
	exc    float64
	matrix *mat.Dense // 6x6, immutable after construction

	zero   *mat.VecDense // zero offset, subtracted from every reading
	zeroed bool

	// data row 0 is the latest zero-adjusted reading, row 1 the previous
	// one (for instantaneous-change diagnostics).
	data    *mat.Dense
	lastRaw [6]uint16 // degraded-data fallback for failed acquisitions
}

// New creates an engine reading from src with the gain, excitation and
// decoupling matrix in cfg. Zero gain, zero excitation or a malformed
// matrix are configuration errors and fail here, not on first update.
func New(src RawChannelSource, cfg *config.Config, logger golog.Logger) (*Loadcell, error) {
	if src == nil {
		return nil, fmt.Errorf("loadcell: nil raw channel source")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loadcell: %w", err)
	}
	if logger == nil {
		logger = golog.NewLogger("loadcell")
	}

	matrix := mat.NewDense(numChannels, numChannels, nil)
	for i, row := range cfg.Matrix {
		matrix.SetRow(i, row)
	}

	return &Loadcell{
		src:    src,
		log:    logger,
		gain:   cfg.AmpGain,
		exc:    cfg.Excitation,
		matrix: matrix,
		zero:   mat.NewVecDense(numChannels, nil),
		data:   mat.NewDense(2, numChannels, nil),
	}, nil
}

// Update acquires one fresh raw reading, converts it to calibrated forces
// and moments, subtracts the zero offset and stores the result as the
// latest reading (pushing the previous one down a row).
//
// zeroOverride, when non-nil, is a one-shot 6-element bias used instead of
// the stored offset for this update only; it is not persisted. Acquisition
// failures are absorbed: the previous raw sample is reused so the control
// loop keeps running on degraded data.
func (lc *Loadcell) Update(zeroOverride []float64) *mat.Dense {
	zero := lc.zero
	if zeroOverride != nil {
		if len(zeroOverride) != numChannels {
			lc.log.Warnf("zero override has %d elements, want %d; using stored offset", len(zeroOverride), numChannels)
		} else {
			zero = mat.NewVecDense(numChannels, zeroOverride)
		}
	}
	lc.step(zero)
	return mat.DenseCopyOf(lc.data)
}

// Calibrate runs the safety-checked zeroing routine: it averages the signed
// (un-zeroed) reading over the given number of iterations and commits the
// mean as the new zero offset. Pass reset to clear a previous zero first.
//
// The caller is responsible for the interactive confirmation; an
// unconfirmed request is refused. Zeroing is also refused while the channel
// source is not streaming, since averaging stale data would corrupt the
// bias. Refusals log a warning and leave the engine state untouched.
func (lc *Loadcell) Calibrate(iterations int, reset, confirmed bool) {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	if !confirmed {
		lc.log.Warnf("zeroing routine was not confirmed, skipping")
		return
	}
	if reset {
		lc.Reset()
	}

	lc.log.Infof("initiating zeroing routine, please ensure that there is no ground contact force")

	if !lc.src.Streaming() {
		lc.log.Warnf("channel source isn't streaming data, please start streaming before zeroing the load cell")
		return
	}

	sum := mat.NewVecDense(numChannels, nil)
	for i := 0; i < iterations; i++ {
		sum.AddVec(sum, lc.step(lc.zero))
	}
	sum.ScaleVec(1/float64(iterations), sum)

	lc.zero.CopyVec(sum)
	lc.zeroed = true
	lc.log.Infof("load cell zeroed over %d samples", iterations)
}

// Reset clears the zero offset and the zeroed flag. The last computed
// reading is left as is.
func (lc *Loadcell) Reset() {
	lc.zero.Zero()
	lc.zeroed = false
}

// step acquires and transforms one sample, shifts the reading rows using
// the given zero vector, and returns the signed (un-zeroed) vector.
func (lc *Loadcell) step(zero *mat.VecDense) *mat.VecDense {
	signed := lc.transform(lc.acquire())
	for i := 0; i < numChannels; i++ {
		lc.data.Set(1, i, lc.data.At(0, i))
		lc.data.Set(0, i, signed.AtVec(i)-zero.AtVec(i))
	}
	return signed
}

// acquire polls the source once. Failures are counted by the source and
// logged here; the previous raw sample stands in for the lost one.
func (lc *Loadcell) acquire() [6]uint16 {
	raw, err := lc.src.RawChannels()
	if err != nil {
		lc.log.Debugf("raw channel read failed, reusing previous sample: %v", err)
		return lc.lastRaw
	}
	lc.lastRaw = raw
	return raw
}

// transform applies the amplifier voltage model and the decoupling matrix:
// each 12-bit code becomes a bridge-normalized voltage, is scaled to mV/V,
// and the coupled 6-vector is multiplied through the matrix as a row
// vector.
func (lc *Loadcell) transform(raw [6]uint16) *mat.VecDense {
	coupled := mat.NewVecDense(numChannels, nil)
	for i, r := range raw {
		voltage := (float64(r) - adcOffset) / adcRange * lc.exc
		coupled.SetVec(i, voltage*1000/(lc.exc*lc.gain))
	}

	signed := mat.NewVecDense(numChannels, nil)
	signed.MulVec(lc.matrix.T(), coupled)
	return signed
}

// IsZeroed reports whether a zeroing routine has completed since the last
// reset.
func (lc *Loadcell) IsZeroed() bool {
	return lc.zeroed
}

// Data returns the latest zero-adjusted reading as a flat 6-element slice
// (fx, fy, fz, mx, my, mz).
func (lc *Loadcell) Data() []float64 {
	out := make([]float64, numChannels)
	mat.Row(out, 0, lc.data)
	return out
}

// ZeroOffset returns a copy of the current zero offset.
func (lc *Loadcell) ZeroOffset() []float64 {
	out := make([]float64, numChannels)
	for i := range out {
		out[i] = lc.zero.AtVec(i)
	}
	return out
}

// Fx returns the latest force along x, in the calibration matrix units.
func (lc *Loadcell) Fx() float64 { return lc.data.At(0, 0) }

// Fy returns the latest force along y.
func (lc *Loadcell) Fy() float64 { return lc.data.At(0, 1) }

// Fz returns the latest force along z.
func (lc *Loadcell) Fz() float64 { return lc.data.At(0, 2) }

// Mx returns the latest moment about x.
func (lc *Loadcell) Mx() float64 { return lc.data.At(0, 3) }

// My returns the latest moment about y.
func (lc *Loadcell) My() float64 { return lc.data.At(0, 4) }

// Mz returns the latest moment about z.
func (lc *Loadcell) Mz() float64 { return lc.data.At(0, 5) }
