// Package empdist loads empirical per-position quality-score profiles for
// paired-end sequencing platforms and samples simulated quality scores
// from them by inverse-CDF lookup.
package empdist

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"gonum.org/v1/gonum/stat"
)

// HighestQual is one past the largest quality score a profile may emit.
const HighestQual = 80

// maxDistNumber is the fixed total mass each positional distribution is
// rescaled to, so a uniform integer draw in [1, maxDistNumber] can be
// looked up directly against cumulative thresholds.
const maxDistNumber = 1000000

// cmbSymb marks the combined (all bases) distribution, the only mode
// used for simulation. Per-base and N rows are recognized and skipped.
const cmbSymb = "."

var knownSymbols = map[string]bool{
	cmbSymb: true,
	"A":     true,
	"C":     true,
	"G":     true,
	"T":     true,
	"N":     true,
}

// cdfEntry pairs a cumulative threshold with the quality score it maps to.
type cdfEntry struct {
	threshold int
	qual      uint8
}

// posDist is the cumulative quality distribution for one read position,
// ordered by ascending threshold ending at maxDistNumber.
type posDist []cdfEntry

// EmpDist holds the per-position empirical quality distributions for both
// mates of a paired-end platform profile. It is immutable after New and
// safe to share between readers.
type EmpDist struct {
	first  []posDist
	second []posDist
}

// FormatError reports a malformed profile file.
type FormatError struct {
	File   string
	Line   string
	Reason string
}

func (e FormatError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("invalid profile format in %s: %s", e.File, e.Reason)
	}
	return fmt.Sprintf("invalid profile format in %s at [%s]: %s", e.File, e.Line, e.Reason)
}

// LengthError reports a requested read length beyond a profile's coverage.
type LengthError struct {
	ReadLen int
	MaxLen  int
	First   bool
}

func (e LengthError) Error() string {
	mate := "second"
	if e.First {
		mate = "first"
	}
	return fmt.Sprintf("read length %d exceeds the %d positions covered by the %s mate profile", e.ReadLen, e.MaxLen, mate)
}

// New reads the profile files for the first and second mate. Each file
// must cover every position with a combined-symbol distribution.
func New(fnameFirst, fnameSecond string) (*EmpDist, error) {
	ed := new(EmpDist)
	var err error
	if ed.first, err = readDist(fnameFirst); err != nil {
		return nil, err
	}
	if ed.second, err = readDist(fnameSecond); err != nil {
		return nil, err
	}
	if len(ed.first) == 0 {
		return nil, FormatError{File: fnameFirst, Reason: "no combined-symbol distributions present"}
	}
	if len(ed.second) == 0 {
		return nil, FormatError{File: fnameSecond, Reason: "no combined-symbol distributions present"}
	}
	return ed, nil
}

// Constant builds a degenerate profile that emits qual at every one of
// length positions for both mates. Useful for calibration runs and tests.
func Constant(length int, qual uint8) *EmpDist {
	dists := make([]posDist, length)
	for i := range dists {
		dists[i] = posDist{{threshold: maxDistNumber, qual: qual}}
	}
	return &EmpDist{first: dists, second: dists}
}

// MaxLength returns the number of read positions covered by the profile
// for the requested mate.
func (ed *EmpDist) MaxLength(first bool) int {
	if first {
		return len(ed.first)
	}
	return len(ed.second)
}

// VerifyLength checks that a read of readLen bases is supported by the
// profile for the requested mate.
func (ed *EmpDist) VerifyLength(readLen int, first bool) error {
	if max := ed.MaxLength(first); readLen > max {
		return LengthError{ReadLen: readLen, MaxLen: max, First: first}
	}
	return nil
}

// ReadQuals samples one quality score per position for a read of readLen
// bases. Each position draws a uniform integer in [1, maxDistNumber] from
// rnd and maps it through the position's cumulative table. Draws are
// consumed in position order, which makes seeded runs reproducible.
func (ed *EmpDist) ReadQuals(rnd *rand.Rand, readLen int, first bool) ([]uint8, error) {
	if err := ed.VerifyLength(readLen, first); err != nil {
		return nil, err
	}
	dists := ed.first
	if !first {
		dists = ed.second
	}
	quals := make([]uint8, readLen)
	for i := 0; i < readLen; i++ {
		rv := rnd.Intn(maxDistNumber) + 1
		d := dists[i]
		j := sort.Search(len(d), func(k int) bool { return d[k].threshold >= rv })
		if j == len(d) {
			// tables end at the full rescaled mass, so this only
			// triggers on degenerate rounding
			j = len(d) - 1
		}
		quals[i] = d[j].qual
	}
	return quals, nil
}

// MeanQuals returns the expected quality score at each covered position
// for the requested mate, decoded from the cumulative tables.
func (ed *EmpDist) MeanQuals(first bool) []float64 {
	dists := ed.first
	if !first {
		dists = ed.second
	}
	means := make([]float64, len(dists))
	for i, d := range dists {
		vals := make([]float64, len(d))
		weights := make([]float64, len(d))
		var prev int
		for k, e := range d {
			vals[k] = float64(e.qual)
			weights[k] = float64(e.threshold - prev)
			prev = e.threshold
		}
		means[i] = stat.Mean(vals, weights)
	}
	return means
}

// readDist parses one mate's profile file into per-position cumulative
// tables. The format is line-oriented: '#' lines are comments; data comes
// in pairs of tab-separated lines per (symbol, position), first the
// ascending quality values then the matching cumulative observation
// counts. Only combined-symbol rows are retained.
func readDist(filename string) ([]posDist, error) {
	file := fileio.EasyOpen(filename)
	var dists []posDist
	var n int
	for {
		line, done := fileio.EasyNextRealLine(file)
		if done || line == "" {
			break
		}
		symb, pos, values, err := parseDistLine(filename, line)
		if err != nil {
			return nil, err
		}
		if symb != cmbSymb {
			// per-base and N distributions are not used for simulation
			continue
		}
		if pos != n {
			if pos != 0 {
				return nil, FormatError{File: filename, Line: line, Reason: fmt.Sprintf("expected position %d", n)}
			}
			n = 0
		}

		countLine, done := fileio.EasyNextRealLine(file)
		if done {
			return nil, FormatError{File: filename, Line: line, Reason: "missing counts line"}
		}
		_, cpos, counts, err := parseDistLine(filename, countLine)
		if err != nil {
			return nil, err
		}
		if cpos != n {
			return nil, FormatError{File: filename, Line: countLine, Reason: fmt.Sprintf("position disagrees with values line for position %d", n)}
		}
		if len(values) != len(counts) {
			return nil, FormatError{File: filename, Line: countLine, Reason: "values and counts differ in length"}
		}

		dist, err := buildDist(filename, countLine, values, counts)
		if err != nil {
			return nil, err
		}
		dists = append(dists, dist)
		n++
	}
	err := file.Close()
	exception.PanicOnErr(err)
	return dists, nil
}

// buildDist rescales cumulative counts to a total mass of maxDistNumber.
func buildDist(filename, line string, values, counts []int) (posDist, error) {
	last := counts[len(counts)-1]
	if last <= 0 {
		return nil, FormatError{File: filename, Line: line, Reason: "total observation count is not positive"}
	}
	dist := make(posDist, len(counts))
	for k := range counts {
		if values[k] < 0 || values[k] >= HighestQual {
			return nil, FormatError{File: filename, Line: line, Reason: fmt.Sprintf("quality score %d out of range", values[k])}
		}
		dist[k] = cdfEntry{
			threshold: int(math.Ceil(float64(counts[k]) * maxDistNumber / float64(last))),
			qual:      uint8(values[k]),
		}
	}
	return dist, nil
}

func parseDistLine(filename, line string) (symb string, pos int, vals []int, err error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return "", 0, nil, FormatError{File: filename, Line: line, Reason: "expected at least 3 tab-separated fields"}
	}
	symb = fields[0]
	if !knownSymbols[symb] {
		return "", 0, nil, FormatError{File: filename, Line: line, Reason: fmt.Sprintf("unrecognized symbol %q", symb)}
	}
	pos, err = strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, nil, FormatError{File: filename, Line: line, Reason: "position is not an integer"}
	}
	vals = make([]int, len(fields)-2)
	for i, f := range fields[2:] {
		vals[i], err = strconv.Atoi(f)
		if err != nil {
			return "", 0, nil, FormatError{File: filename, Line: line, Reason: fmt.Sprintf("field %q is not an integer", f)}
		}
	}
	return symb, pos, vals, nil
}
