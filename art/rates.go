package art

import "gonum.org/v1/gonum/stat/distuv"

// makeRates tabulates the survival function of a binomial event model:
// rates[i] is the probability of more than i+1 events occurring in a read
// of readLen bases when each base carries an event probability of prob.
// The table is monotonically non-increasing with index. maxNum is clamped
// to readLen.
func makeRates(readLen, maxNum int, prob float64) []float64 {
	if maxNum > readLen {
		maxNum = readLen
	}
	b := distuv.Binomial{N: float64(readLen), P: prob}
	rates := make([]float64, 0, maxNum)
	for i := 1; i <= maxNum; i++ {
		rates = append(rates, 1-b.CDF(float64(i)))
	}
	return rates
}
