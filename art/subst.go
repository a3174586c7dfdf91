package art

import (
	"math"
	"math/rand"

	"artsim/empdist"
	"github.com/vertgenlab/gonomics/dna"
)

// probErr maps a phred-like quality score to its substitution probability
// 10^(-q/10), tabulated for every score a profile can emit.
var probErr [empdist.HighestQual]float64

func init() {
	for q := range probErr {
		probErr[q] = math.Pow(10, -float64(q)/10)
	}
}

// koSubs lists, for each primary base, the three alternatives a
// substitution error may produce.
var koSubs = map[dna.Base][]dna.Base{
	dna.A: {dna.C, dna.G, dna.T},
	dna.C: {dna.A, dna.G, dna.T},
	dna.G: {dna.A, dna.C, dna.T},
	dna.T: {dna.A, dna.C, dna.G},
}

var allSubs = []dna.Base{dna.A, dna.C, dna.G, dna.T}

// randomBase returns a uniform draw from the primary bases. When excl is a
// primary base the draw comes from the remaining three.
func randomBase(rnd *rand.Rand, excl dna.Base) dna.Base {
	if ko, ok := koSubs[excl]; ok {
		return ko[rnd.Intn(3)]
	}
	return allSubs[rnd.Intn(4)]
}

// injectErrors walks the sampled qualities and substitutes each base whose
// error draw lands below its quality's error probability. An undefined (N)
// base is never substituted and has its quality forced to 1. Both buffers
// are modified in place.
func injectErrors(rnd *rand.Rand, quals []uint8, seq []dna.Base) {
	for i := range quals {
		if seq[i] == dna.N {
			quals[i] = 1
			continue
		}
		if rnd.Float64() < probErr[quals[i]] {
			seq[i] = randomBase(rnd, seq[i])
		}
	}
}
