package art

import (
	"fmt"
	"math/rand"

	"github.com/vertgenlab/gonomics/dna"
	"github.com/vertgenlab/gonomics/fastq"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// SeqRead is one simulated read: the reference slice it was excised from,
// the synthesized sequence after indels and substitution errors, the
// sampled quality scores and the indel plan that shaped it. A SeqRead is
// built fresh for every simulated read and handed off to the caller.
type SeqRead struct {
	ReadLen    int // requested length, shortened when the template cannot cover it
	PlusStrand bool
	BPos       int // start offset within the source sequence
	SeqRef     []dna.Base
	Seq        []dna.Base
	Quals      []uint8
	indel      map[int]dna.Base // dna.Gap marks a deletion, anything else an inserted base
	insRate    []float64
	delRate    []float64
}

// Length returns the number of bases actually simulated. This can be
// shorter than the requested read length for short templates.
func (r *SeqRead) Length() int {
	return len(r.Seq)
}

// IndelPositions returns the positions of all planned indel events in
// ascending order. Positions are in indel space: insertions occupy a slot
// of their own, deletions the slot of the removed base.
func (r *SeqRead) IndelPositions() []int {
	pos := maps.Keys(r.indel)
	slices.Sort(pos)
	return pos
}

// ToFastq packages the read for FASTQ output, naming it after the source
// sequence and a running index.
func (r *SeqRead) ToFastq(refID string, n int) fastq.Fastq {
	return fastq.Fastq{Name: ReadID(refID, n), Seq: r.Seq, Qual: r.Quals}
}

// ReadID forms a read identifier from the source sequence id and an index,
// following ART_illumina practice.
func ReadID(refID string, n int) string {
	return fmt.Sprintf("%s-%d", refID, n)
}

// placeEvents draws distinct positions in [minPos, ReadLen) until count
// events are marked in the indel map. Deletions are marked with dna.Gap,
// insertions with a uniformly drawn base. The rejection loop is bounded;
// exhausting the budget returns a SamplingError.
func (r *SeqRead) placeEvents(rnd *rand.Rand, count, minPos int, deletion bool) error {
	maxTries := 16 + 8*r.ReadLen
	var tries int
	for placed := 0; placed < count; {
		if tries++; tries > maxTries {
			return SamplingError{ReadLen: r.ReadLen, Events: count}
		}
		if r.ReadLen <= minPos {
			return SamplingError{ReadLen: r.ReadLen, Events: count}
		}
		pos := rnd.Intn(r.ReadLen)
		if pos < minPos {
			continue
		}
		if _, taken := r.indel[pos]; taken {
			continue
		}
		if deletion {
			r.indel[pos] = dna.Gap
		} else {
			r.indel[pos] = randomBase(rnd, dna.Nil)
		}
		placed++
	}
	return nil
}

// PlanIndels draws the indel plan for this read: the deletion count first,
// then the insertion count, each decided against its survival-rate curve
// from the largest candidate down, with distinct uniformly drawn
// positions. Deletions never land on the first base. Returns the net
// length change (insertions - deletions).
func (r *SeqRead) PlanIndels(rnd *rand.Rand) (int, error) {
	maps.Clear(r.indel)
	var insLen, delLen int

	for i := len(r.delRate) - 1; i >= 0; i-- {
		if r.delRate[i] >= rnd.Float64() {
			delLen = i + 1
			if err := r.placeEvents(rnd, delLen, 1, true); err != nil {
				return 0, err
			}
			break
		}
	}

	for i := len(r.insRate) - 1; i >= 0; i-- {
		// not enough untouched positions remain for this event count
		if r.ReadLen-delLen-insLen < i+1 {
			continue
		}
		if r.insRate[i] >= rnd.Float64() {
			insLen = i + 1
			if err := r.placeEvents(rnd, insLen, 0, false); err != nil {
				return 0, err
			}
			break
		}
	}

	return insLen - delLen, nil
}

// PlanIndelsBalanced is the fallback plan used when the primary plan would
// not fit the available template: insertions are drawn first and the
// deletion count may never exceed the insertion count, so the net length
// change is non-negative and the read can only shrink its demand on the
// template.
func (r *SeqRead) PlanIndelsBalanced(rnd *rand.Rand) (int, error) {
	maps.Clear(r.indel)
	var insLen, delLen int

	for i := len(r.insRate) - 1; i >= 0; i-- {
		if r.insRate[i] >= rnd.Float64() {
			insLen = i + 1
			if err := r.placeEvents(rnd, insLen, 0, false); err != nil {
				return 0, err
			}
			break
		}
	}

	for i := len(r.delRate) - 1; i >= 0; i-- {
		if delLen == insLen {
			break
		}
		if i+1 > insLen {
			continue
		}
		if r.ReadLen-delLen-insLen < i+1 {
			continue
		}
		if r.delRate[i] >= rnd.Float64() {
			delLen = i + 1
			if err := r.placeEvents(rnd, delLen, 1, true); err != nil {
				return 0, err
			}
			break
		}
	}

	return insLen - delLen, nil
}

// buildRead reconstructs the read sequence from the reference slice and
// the indel plan. The walk keeps a reference index i and an indel-space
// index k: positions absent from the plan copy a reference base, gaps
// consume a reference base silently, insertions emit their stored base
// without consuming one. Trailing insertions past the end of the
// reference are flushed last.
func (r *SeqRead) buildRead() {
	if len(r.indel) == 0 {
		r.Seq = make([]dna.Base, len(r.SeqRef))
		copy(r.Seq, r.SeqRef)
		return
	}
	r.Seq = make([]dna.Base, 0, len(r.SeqRef)+len(r.indel))
	var i, k int
	for i < len(r.SeqRef) {
		b, ok := r.indel[k]
		switch {
		case !ok:
			r.Seq = append(r.Seq, r.SeqRef[i])
			i++
			k++
		case b == dna.Gap:
			i++
			k++
		default:
			r.Seq = append(r.Seq, b)
			k++
		}
	}
	for b, ok := r.indel[k]; ok; b, ok = r.indel[k] {
		if b != dna.Gap {
			r.Seq = append(r.Seq, b)
		}
		k++
	}
}
