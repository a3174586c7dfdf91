// Command artsim simulates Illumina paired-end reads from a reference
// fasta using empirical quality profiles, writing one FASTQ file per mate.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"artsim/art"
	"artsim/empdist"
	"github.com/pkg/profile"
	"github.com/vertgenlab/gonomics/dna"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fasta"
	"github.com/vertgenlab/gonomics/fastq"
	"github.com/vertgenlab/gonomics/fileio"
)

func usage() {
	fmt.Print(
		"artsim - Simulate Illumina paired-end reads with empirical quality profiles.\n" +
			"Reads are sequenced off both ends of normally distributed fragments drawn\n" +
			"from the reference, with indel and substitution errors.\n" +
			"Usage:\n" +
			"artsim [options] -1 profileR1.txt -2 profileR2.txt -l readLength ref.fasta outbase\n\n")
	flag.PrintDefaults()
}

func main() {
	seed := flag.Int64("S", 0, "Random seed. When 0 the seed derives from the clock and runs are not reproducible.")
	profile1 := flag.String("1", "", "Sequencer quality profile for mate 1 reads.")
	profile2 := flag.String("2", "", "Sequencer quality profile for mate 2 reads.")
	readLen := flag.Int("l", 0, "Read length.")
	xfold := flag.Float64("X", 0, "Depth of coverage. Mutually exclusive with -N.")
	numReads := flag.Int("N", 0, "Number of read pairs. Mutually exclusive with -X.")
	insRate := flag.Float64("insRate", 0.00009, "Insertion rate per base.")
	delRate := flag.Float64("delRate", 0.00011, "Deletion rate per base.")
	maxIndels := flag.Int("maxIndels", 2, "Maximum indel events per read.")
	fragMean := flag.Float64("fragMean", 500, "Mean fragment length.")
	fragStdev := flag.Float64("fragStdev", 50, "Standard deviation of fragment length.")
	minFrag := flag.Int("minFrag", 200, "Smallest fragment length that will be sequenced.")
	cpuprofile := flag.Bool("cpuprofile", false, "write cpu profile")
	memprofile := flag.Bool("memprofile", false, "write memory profile")
	flag.Parse()

	if *memprofile && *cpuprofile {
		usage()
		log.Fatal("ERROR: -memprofile and -cpuprofile are mutually exclusive.")
	}
	if *memprofile {
		defer profile.Start(profile.MemProfile).Stop()
	}
	if *cpuprofile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	if flag.NArg() != 2 {
		usage()
		log.Fatal("ERROR: must provide a reference fasta and an output base name.")
	}
	if *profile1 == "" || *profile2 == "" || *readLen < 1 {
		usage()
		log.Fatal("ERROR: must specify profiles (-1, -2) and read length (-l).")
	}
	if *xfold > 0 && *numReads > 0 {
		log.Fatal("ERROR: -X and -N are mutually exclusive.")
	}
	if *xfold <= 0 && *numReads <= 0 {
		log.Fatal("ERROR: must specify one of -X or -N.")
	}
	if *fragMean <= float64(*minFrag) {
		log.Fatal("ERROR: -fragMean must be larger than -minFrag.")
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	artsim(flag.Arg(0), flag.Arg(1), *profile1, *profile2, *seed, *readLen, *numReads, *maxIndels, *minFrag, *xfold, *insRate, *delRate, *fragMean, *fragStdev)
}

func artsim(refFile, outbase, profile1, profile2 string, seed int64, readLen, numReads, maxIndels, minFrag int, xfold, insRate, delRate, fragMean, fragStdev float64) {
	rnd := rand.New(rand.NewSource(seed))

	dist, err := empdist.New(profile1, profile2)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	records := fasta.Read(refFile)
	r1 := fileio.EasyCreate(outbase + ".r1.fq")
	r2 := fileio.EasyCreate(outbase + ".r2.fq")

	for _, rec := range records {
		dna.AllToUpper(rec.Seq)
		a, err := art.New(dist, rnd, readLen, maxIndels, insRate, delRate, nil)
		if err != nil {
			log.Fatalf("ERROR: %v", err)
		}

		numPairs := numReads
		if xfold > 0 {
			numPairs = int(math.Ceil(float64(len(rec.Seq)) / float64(readLen) * xfold))
		}
		log.Printf("Generating %d read pairs for %s\n", numPairs, rec.Name)

		tick := numPairs / 10
		for n := 0; n < numPairs; n++ {
			fragLen := drawFragLen(rnd, fragMean, fragStdev, minFrag, len(rec.Seq))
			var pos int
			if len(rec.Seq) > fragLen {
				pos = rnd.Intn(len(rec.Seq) - fragLen)
			}

			fwd, rev, err := a.NextPairFragment(rec.Seq[pos : pos+fragLen])
			if err != nil {
				log.Fatalf("ERROR: generating pair %d for %s: %v", n, rec.Name, err)
			}
			fastq.WriteToFileHandle(r1, fwd.ToFastq(rec.Name, n))
			fastq.WriteToFileHandle(r2, rev.ToFastq(rec.Name, n))

			if tick > 0 && (n+1)%tick == 0 {
				log.Printf("\twrote %d pairs\n", n+1)
			}
		}
	}

	err = r1.Close()
	exception.PanicOnErr(err)
	err = r2.Close()
	exception.PanicOnErr(err)
}

// drawFragLen samples a fragment length from Normal(mean, stdev), redrawn
// until it clears the minimum, then capped at the reference length.
func drawFragLen(rnd *rand.Rand, mean, stdev float64, minFrag, refLen int) int {
	fragLen := 0
	for fragLen <= minFrag {
		fragLen = int(math.Ceil(rnd.NormFloat64()*stdev + mean))
	}
	if fragLen > refLen {
		fragLen = refLen
	}
	return fragLen
}
