package wave

import (
	"bufio"
	"fmt"
	"math"
	"math/cmplx"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// PolesZeros is an instrument transfer function in SAC pole-zero (SACPZ)
// form. Evaluated in the Laplace domain at s = i*2*pi*f.
type PolesZeros struct {
	Zeros    []complex128
	Poles    []complex128
	Constant float64
}

// ReadSACPZ parses a SACPZ response file. Lines starting with '*' are
// comments. Omitted CONSTANT defaults to 1; zero lines omitted after a
// ZEROS count default to (0,0), per the SACPZ convention.
func ReadSACPZ(path string) (*PolesZeros, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read sacpz %s: %w", path, err)
	}
	defer f.Close()

	pz := &PolesZeros{Constant: 1}
	var section string
	var wantZeros int

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)

		switch strings.ToUpper(fields[0]) {
		case "ZEROS", "POLES":
			if len(fields) != 2 {
				return nil, fmt.Errorf("read sacpz %s: malformed line %q", path, line)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("read sacpz %s: bad count %q", path, fields[1])
			}
			section = strings.ToUpper(fields[0])
			if section == "ZEROS" {
				wantZeros = n
			}
		case "CONSTANT":
			if len(fields) != 2 {
				return nil, fmt.Errorf("read sacpz %s: malformed line %q", path, line)
			}
			c, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("read sacpz %s: bad constant %q", path, fields[1])
			}
			pz.Constant = c
		default:
			if section == "" || len(fields) != 2 {
				return nil, fmt.Errorf("read sacpz %s: unexpected line %q", path, line)
			}
			re, err1 := strconv.ParseFloat(fields[0], 64)
			im, err2 := strconv.ParseFloat(fields[1], 64)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("read sacpz %s: bad pair %q", path, line)
			}
			if section == "ZEROS" {
				pz.Zeros = append(pz.Zeros, complex(re, im))
			} else {
				pz.Poles = append(pz.Poles, complex(re, im))
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read sacpz %s: %w", path, err)
	}

	// Unlisted zeros after the count line are implicit zeros at the origin.
	for len(pz.Zeros) < wantZeros {
		pz.Zeros = append(pz.Zeros, 0)
	}
	return pz, nil
}

// At evaluates the transfer function at frequency f Hz.
func (pz *PolesZeros) At(f float64) complex128 {
	s := complex(0, 2*math.Pi*f)
	h := complex(pz.Constant, 0)
	for _, z := range pz.Zeros {
		h *= s - z
	}
	for _, p := range pz.Poles {
		h /= s - p
	}
	return h
}

// PreFilter is a frequency-domain cosine taper band [F1,F2,F3,F4]:
// zero below F1 and above F4, unity between F2 and F3, cosine ramps in
// between. The stock band matches the deconvolution defaults.
type PreFilter struct {
	F1, F2, F3, F4 float64
}

// DefaultPreFilter is the band used by the deconvolution stage.
var DefaultPreFilter = PreFilter{F1: 0.003, F2: 0.006, F3: 1, F4: 2}

// At returns the taper weight at frequency f.
func (p PreFilter) At(f float64) float64 {
	switch {
	case f <= p.F1 || f >= p.F4:
		return 0
	case f >= p.F2 && f <= p.F3:
		return 1
	case f < p.F2:
		return 0.5 * (1 - math.Cos(math.Pi*(f-p.F1)/(p.F2-p.F1)))
	default:
		return 0.5 * (1 + math.Cos(math.Pi*(f-p.F3)/(p.F4-p.F3)))
	}
}

// outputScale converts the deconvolved displacement from meters to
// nanometers, matching the archive's unit convention.
const outputScale = 1e9

// RemoveResponse deconvolves the instrument response from the trace in
// place: demean, linear detrend, 5% Hann taper, then spectral division by
// the transfer function inside the pre-filter band. Spectral bins where the
// response magnitude vanishes are zeroed rather than amplified.
func (t *Trace) RemoveResponse(pz *PolesZeros, pre PreFilter) error {
	n := len(t.Data)
	if n == 0 {
		return fmt.Errorf("remove response: empty trace %s", t.ID())
	}
	if pz == nil {
		return fmt.Errorf("remove response: no response for %s", t.ID())
	}

	t.Demean()
	t.DetrendLinear()
	t.TaperHann(0.05)

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, t.Data)

	df := t.SamplingRate() / float64(n)
	for k := range coeffs {
		f := float64(k) * df
		w := pre.At(f)
		if w == 0 {
			coeffs[k] = 0
			continue
		}
		h := pz.At(f)
		if cmplx.Abs(h) < 1e-30 {
			coeffs[k] = 0
			continue
		}
		coeffs[k] = coeffs[k] * complex(w, 0) / h
	}

	seq := fft.Sequence(nil, coeffs)
	floats.Scale(outputScale/float64(n), seq)
	t.Data = seq
	return nil
}
