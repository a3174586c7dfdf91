// Package art simulates sequencer-realistic short reads: insertion and
// deletion events drawn from a binomial rate model, quality scores drawn
// from an empirical platform profile, and quality-driven substitution
// errors. The implementation follows ART_illumina semantics.
package art

import (
	"math/rand"

	"artsim/empdist"
	"github.com/vertgenlab/gonomics/dna"
)

// Art generates simulated reads against an empirical quality profile and a
// binomial indel model. Every sampling decision draws from the single
// rand.Rand handle supplied at construction, in a fixed order, so a seeded
// run reproduces exactly. Art is not safe for concurrent use; parallel
// generation wants one Art with an independently seeded rand per worker.
type Art struct {
	readLen     int
	dist        *empdist.EmpDist
	insRate     []float64
	delRate     []float64
	rnd         *rand.Rand
	refSeq      []dna.Base
	refSeqRc    []dna.Base
	validRegion int
}

// New builds a simulator. readLen must be covered by both mate profiles.
// refSeq enables the positional entry points and may be nil when only the
// fragment entry points are needed; it is copied, uppercased and reverse
// complemented once up front.
func New(dist *empdist.EmpDist, rnd *rand.Rand, readLen, maxNum int, insProb, delProb float64, refSeq []dna.Base) (*Art, error) {
	if err := dist.VerifyLength(readLen, true); err != nil {
		return nil, err
	}
	if err := dist.VerifyLength(readLen, false); err != nil {
		return nil, err
	}
	a := &Art{
		readLen: readLen,
		dist:    dist,
		insRate: makeRates(readLen, maxNum, insProb),
		delRate: makeRates(readLen, maxNum, delProb),
		rnd:     rnd,
	}
	if refSeq != nil {
		a.refSeq = upperCopy(refSeq)
		a.refSeqRc = make([]dna.Base, len(a.refSeq))
		copy(a.refSeqRc, a.refSeq)
		dna.ReverseComplement(a.refSeqRc)
		a.validRegion = len(a.refSeq) - readLen
	}
	return a, nil
}

// ReadLen returns the configured (requested) read length.
func (a *Art) ReadLen() int {
	return a.readLen
}

func (a *Art) newRead(plusStrand bool) *SeqRead {
	return &SeqRead{
		ReadLen:    a.readLen,
		PlusStrand: plusStrand,
		indel:      make(map[int]dna.Base),
		insRate:    a.insRate,
		delRate:    a.delRate,
	}
}

// planFit runs the primary indel plan and falls back to the balanced plan
// once, either on a sampling failure or when the planned read would need
// more than avail source bases. A balanced-plan failure is final.
func (a *Art) planFit(read *SeqRead, avail int) (int, error) {
	slen, err := read.PlanIndels(a.rnd)
	if err != nil || a.readLen-slen > avail {
		slen, err = read.PlanIndelsBalanced(a.rnd)
	}
	return slen, err
}

// NextReadFragment generates one read off an already-excised template
// fragment, e.g. a simulated sequencing insert. Minus-strand reads
// sequence the reverse complement of the fragment from its start. A
// template shorter than the read length truncates the read. Forward reads
// sample the first mate profile, reverse reads the second.
func (a *Art) NextReadFragment(template []dna.Base, plusStrand bool) (*SeqRead, error) {
	read := a.newRead(plusStrand)
	if len(template) < read.ReadLen {
		// short templates are sequenced over their total extent
		read.ReadLen = len(template)
	}

	slen, err := a.planFit(read, len(template))
	if err != nil {
		return nil, err
	}

	end := a.readLen - slen
	if end > len(template) {
		end = len(template)
	}
	tmpl := upperCopy(template)
	if !read.PlusStrand {
		dna.ReverseComplement(tmpl)
	}
	read.SeqRef = tmpl[:end]
	read.BPos = 0
	read.buildRead()

	read.Quals, err = a.dist.ReadQuals(a.rnd, read.Length(), read.PlusStrand)
	if err != nil {
		return nil, err
	}
	injectErrors(a.rnd, read.Quals, read.Seq)
	return read, nil
}

// NextPairFragment generates a forward/reverse read pair off the two ends
// of a template fragment.
func (a *Art) NextPairFragment(template []dna.Base) (fwd, rev *SeqRead, err error) {
	if fwd, err = a.NextReadFragment(template, true); err != nil {
		return nil, nil, err
	}
	if rev, err = a.NextReadFragment(template, false); err != nil {
		return nil, nil, err
	}
	return fwd, rev, nil
}

// NextReadAt generates one read at a fixed offset into the full reference.
// Minus-strand reads slice the precomputed reverse complement at the same
// offset a plus-strand read would use. Quality scores always come from the
// first mate profile in positional mode.
func (a *Art) NextReadAt(pos int, plusStrand bool) (*SeqRead, error) {
	if a.refSeq == nil {
		return nil, ErrNoReference
	}
	read := a.newRead(plusStrand)

	slen, err := a.planFit(read, len(a.refSeq)-pos)
	if err != nil {
		return nil, err
	}

	end := pos + a.readLen - slen
	if end > len(a.refSeq) {
		end = len(a.refSeq)
	}
	src := a.refSeq
	if !read.PlusStrand {
		src = a.refSeqRc
	}
	read.SeqRef = make([]dna.Base, end-pos)
	copy(read.SeqRef, src[pos:end])
	read.BPos = pos
	read.buildRead()

	read.Quals, err = a.dist.ReadQuals(a.rnd, read.Length(), true)
	if err != nil {
		return nil, err
	}
	injectErrors(a.rnd, read.Quals, read.Seq)
	return read, nil
}

// NextRead generates one read at a uniformly drawn position and strand.
func (a *Art) NextRead() (*SeqRead, error) {
	if a.refSeq == nil {
		return nil, ErrNoReference
	}
	var pos int
	if a.validRegion > 0 {
		pos = a.rnd.Intn(a.validRegion)
	}
	plusStrand := a.rnd.Float64() < 0.5
	return a.NextReadAt(pos, plusStrand)
}

// NextReadSimple generates an error-free read: a direct prefix slice of
// the template (or of its reverse complement) with a constant quality
// score at every position. No indel or substitution modeling and no
// profile involvement; short templates truncate the read.
func (a *Art) NextReadSimple(template []dna.Base, plusStrand bool, qual uint8) *SeqRead {
	read := a.newRead(plusStrand)
	if len(template) < read.ReadLen {
		read.ReadLen = len(template)
	}

	end := a.readLen
	if end > len(template) {
		end = len(template)
	}
	tmpl := upperCopy(template)
	if !read.PlusStrand {
		dna.ReverseComplement(tmpl)
	}
	read.SeqRef = tmpl[:end]
	read.BPos = 0
	read.buildRead()

	read.Quals = make([]uint8, read.Length())
	for i := range read.Quals {
		read.Quals[i] = qual
	}
	return read
}

// NextPairSimple generates an error-free forward/reverse pair off the two
// ends of a template fragment.
func (a *Art) NextPairSimple(template []dna.Base, qual uint8) (fwd, rev *SeqRead) {
	return a.NextReadSimple(template, true, qual), a.NextReadSimple(template, false, qual)
}

// CleanSequence converts raw sequence text to the simulator alphabet:
// uppercase, U treated as T, and any other letter outside ACGTN mapped
// to N.
func CleanSequence(s string) []dna.Base {
	out := make([]dna.Base, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'a':
			out[i] = dna.A
		case 'C', 'c':
			out[i] = dna.C
		case 'G', 'g':
			out[i] = dna.G
		case 'T', 't', 'U', 'u':
			out[i] = dna.T
		default:
			out[i] = dna.N
		}
	}
	return out
}

func upperCopy(seq []dna.Base) []dna.Base {
	out := make([]dna.Base, len(seq))
	copy(out, seq)
	dna.AllToUpper(out)
	return out
}
