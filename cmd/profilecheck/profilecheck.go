// Command profilecheck summarizes an empirical quality profile pair
// before it is used for simulation: per-mate position coverage and mean
// quality by position, as a terminal plot and optionally a PNG.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"

	"artsim/empdist"
	"github.com/guptarohit/asciigraph"
	"github.com/vertgenlab/gonomics/exception"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

func usage() {
	fmt.Print(
		"profilecheck - Summarize an empirical quality profile pair.\n" +
			"Usage:\n" +
			"profilecheck [options] -1 profileR1.txt -2 profileR2.txt\n\n")
	flag.PrintDefaults()
}

func main() {
	profile1 := flag.String("1", "", "Sequencer quality profile for mate 1 reads.")
	profile2 := flag.String("2", "", "Sequencer quality profile for mate 2 reads.")
	pngOut := flag.String("png", "", "Write a mean-quality line plot to this PNG file.")
	height := flag.Int("height", 10, "Height of the terminal plot in rows.")
	flag.Parse()

	if *profile1 == "" || *profile2 == "" {
		usage()
		log.Fatal("ERROR: must specify both profiles (-1, -2).")
	}

	dist, err := empdist.New(*profile1, *profile2)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	meansFirst := dist.MeanQuals(true)
	meansSecond := dist.MeanQuals(false)
	report("mate 1", *profile1, meansFirst, *height)
	report("mate 2", *profile2, meansSecond, *height)

	if *pngOut != "" {
		writePlot(*pngOut, meansFirst, meansSecond)
		log.Printf("wrote %s\n", *pngOut)
	}
}

func report(mate, filename string, means []float64, height int) {
	fmt.Printf("%s (%s): %d positions, overall mean quality %.1f, stdev %.1f\n",
		mate, filename, len(means), stat.Mean(means, nil), stat.StdDev(means, nil))
	fmt.Println(asciigraph.Plot(means, asciigraph.Height(height), asciigraph.Precision(0)))
	fmt.Println()
}

func writePlot(fname string, first, second []float64) {
	p := plot.New()
	p.Title.Text = "Mean quality by read position"
	p.X.Label.Text = "position"
	p.Y.Label.Text = "mean quality"

	l1, err := plotter.NewLine(toXYs(first))
	exception.PanicOnErr(err)
	l2, err := plotter.NewLine(toXYs(second))
	exception.PanicOnErr(err)
	l2.LineStyle.Color = color.RGBA{R: 196, A: 255}

	p.Add(l1, l2)
	p.Legend.Add("mate 1", l1)
	p.Legend.Add("mate 2", l2)

	err = p.Save(6*vg.Inch, 4*vg.Inch, fname)
	exception.PanicOnErr(err)
}

func toXYs(vals []float64) plotter.XYs {
	xys := make(plotter.XYs, len(vals))
	for i, v := range vals {
		xys[i].X = float64(i)
		xys[i].Y = v
	}
	return xys
}
