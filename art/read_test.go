package art

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/vertgenlab/gonomics/dna"
)

func TestMakeRates(t *testing.T) {
	rates := makeRates(100, 2, 0.5)
	if len(rates) != 2 {
		t.Fatalf("got %d rates, want 2", len(rates))
	}
	if rates[0] < 0.9 {
		t.Errorf("survival past 1 event at p=0.5 is %.4f, expected near 1", rates[0])
	}
	for i := 1; i < len(rates); i++ {
		if rates[i] > rates[i-1] {
			t.Errorf("rates increase at index %d: %v", i, rates)
		}
	}

	if got := makeRates(1, 5, 0.5); len(got) != 1 {
		t.Errorf("event count not clamped to read length: %d rates", len(got))
	}

	for _, r := range makeRates(100, 2, 0) {
		if r != 0 {
			t.Errorf("zero probability rate curve contains %v", r)
		}
	}
}

func newTestRead(readLen int, insRate, delRate []float64) *SeqRead {
	return &SeqRead{
		ReadLen: readLen,
		indel:   make(map[int]dna.Base),
		insRate: insRate,
		delRate: delRate,
	}
}

// countEvents tallies the planned insertions and deletions from the indel
// map.
func countEvents(r *SeqRead) (ins, del int) {
	for _, b := range r.indel {
		if b == dna.Gap {
			del++
		} else {
			ins++
		}
	}
	return ins, del
}

func TestPlanIndels(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	r := newTestRead(50, []float64{0.9, 0.5}, []float64{0.9, 0.5})
	for trial := 0; trial < 1000; trial++ {
		net, err := r.PlanIndels(rnd)
		if err != nil {
			t.Fatal(err)
		}
		ins, del := countEvents(r)
		if net != ins-del {
			t.Fatalf("net delta %d but plan holds %d insertions and %d deletions", net, ins, del)
		}
		if b, ok := r.indel[0]; ok && b == dna.Gap {
			t.Fatal("deletion planned at position 0")
		}
		for pos := range r.indel {
			if pos < 0 || pos >= r.ReadLen {
				t.Fatalf("event position %d outside read", pos)
			}
		}
	}
}

func TestPlanIndelsBalanced(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	r := newTestRead(50, []float64{0.9, 0.5}, []float64{0.9, 0.5})
	for trial := 0; trial < 1000; trial++ {
		net, err := r.PlanIndelsBalanced(rnd)
		if err != nil {
			t.Fatal(err)
		}
		if net < 0 {
			t.Fatalf("balanced plan produced negative net delta %d", net)
		}
		ins, del := countEvents(r)
		if del > ins {
			t.Fatalf("balanced plan holds %d deletions for %d insertions", del, ins)
		}
	}
}

func TestPlanIndelsBudgetExhausted(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	r := newTestRead(1, []float64{1, 1}, []float64{1, 1})

	_, err := r.PlanIndels(rnd)
	var sampErr SamplingError
	if !errors.As(err, &sampErr) {
		t.Fatalf("got %v, want a SamplingError", err)
	}

	_, err = r.PlanIndelsBalanced(rnd)
	if !errors.As(err, &sampErr) {
		t.Fatalf("balanced plan got %v, want a SamplingError", err)
	}
}

func TestBuildRead(t *testing.T) {
	tests := []struct {
		name   string
		ref    string
		indel  map[int]dna.Base
		expect string
	}{
		{"no events", "ACGTACGTAC", nil, "ACGTACGTAC"},
		{"deletion", "ACGTACGTACG", map[int]dna.Base{3: dna.Gap}, "ACGACGTACG"},
		{"insertion", "ACGTACGTA", map[int]dna.Base{5: dna.C}, "ACGTACCGTA"},
		{"trailing insertion", "ACGTACGTA", map[int]dna.Base{9: dna.G}, "ACGTACGTAG"},
		{"mixed", "ACGTACGTAC", map[int]dna.Base{1: dna.Gap, 4: dna.T}, "AGTTACGTAC"},
	}
	for _, test := range tests {
		r := newTestRead(10, nil, nil)
		r.SeqRef = dna.StringToBases(test.ref)
		if test.indel != nil {
			r.indel = test.indel
		}
		r.buildRead()
		ins, del := countEvents(r)
		if want := len(r.SeqRef) + ins - del; r.Length() != want {
			t.Errorf("%s: length %d, want %d", test.name, r.Length(), want)
		}
		if got := dna.BasesToString(r.Seq); got != test.expect {
			t.Errorf("%s: built %s, want %s", test.name, got, test.expect)
		}
	}
}

func TestIndelPositions(t *testing.T) {
	r := newTestRead(10, nil, nil)
	r.indel = map[int]dna.Base{7: dna.Gap, 2: dna.A, 5: dna.Gap}
	pos := r.IndelPositions()
	if len(pos) != 3 {
		t.Fatalf("got %d positions, want 3", len(pos))
	}
	for i := 1; i < len(pos); i++ {
		if pos[i] <= pos[i-1] {
			t.Fatalf("positions not ascending and distinct: %v", pos)
		}
	}
}

func TestInjectErrorsUndefinedBase(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	seq := []dna.Base{dna.N, dna.A}
	quals := []uint8{40, 40}
	injectErrors(rnd, quals, seq)
	if quals[0] != 1 {
		t.Errorf("quality at N base is %d, want 1", quals[0])
	}
	if seq[0] != dna.N {
		t.Error("N base was substituted")
	}
}

// With quality fixed at 10 the substitution probability is 0.1; observed
// frequency over many bases should converge there, and substitutions must
// avoid the original base.
func TestInjectErrorsFrequency(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	const n = 20000
	seq := make([]dna.Base, n)
	quals := make([]uint8, n)
	for i := range seq {
		seq[i] = dna.A
		quals[i] = 10
	}
	injectErrors(rnd, quals, seq)

	var changed int
	for i := range seq {
		if seq[i] == dna.A {
			continue
		}
		changed++
		if seq[i] != dna.C && seq[i] != dna.G && seq[i] != dna.T {
			t.Fatalf("base %d substituted to %v", i, seq[i])
		}
	}
	freq := float64(changed) / n
	if math.Abs(freq-0.1) > 0.015 {
		t.Errorf("substitution frequency %.4f, want 0.1 +/- 0.015", freq)
	}
}

func TestReadID(t *testing.T) {
	if got := ReadID("chr1", 7); got != "chr1-7" {
		t.Errorf("got %s, want chr1-7", got)
	}
}

func TestToFastq(t *testing.T) {
	r := newTestRead(4, nil, nil)
	r.Seq = dna.StringToBases("ACGT")
	r.Quals = []uint8{30, 31, 32, 33}
	fq := r.ToFastq("chr1", 3)
	if fq.Name != "chr1-3" {
		t.Errorf("name %s, want chr1-3", fq.Name)
	}
	if dna.BasesToString(fq.Seq) != "ACGT" || len(fq.Qual) != 4 {
		t.Error("sequence or qualities not carried into the record")
	}
}
