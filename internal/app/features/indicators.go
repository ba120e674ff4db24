package features

import (
	"math"
)

// The functions below operate on aligned value slices and return one result
// per input bar. Bars for which the indicator window is not yet filled carry
// NaN, callers convert NaN to null before persisting.

// Sma computes the simple moving average over the given period.
func Sma(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}

	return out
}

// Ema computes the exponential moving average over the given period. The
// first value is seeded with the simple average of the first period bars.
func Ema(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var seed float64
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	out[period-1] = seed / float64(period)

	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}

	return out
}

// Rsi computes the relative strength index with Wilder smoothing.
func Rsi(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}

	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// Macd computes the moving average convergence divergence line, its signal
// line and the histogram between the two.
func Macd(values []float64, fast, slow, signal int) (line, signalLine, histogram []float64) {
	line = nanSlice(len(values))
	signalLine = nanSlice(len(values))
	histogram = nanSlice(len(values))

	fastEma := Ema(values, fast)
	slowEma := Ema(values, slow)

	var defined []float64
	var definedIdx []int
	for i := range values {
		if !math.IsNaN(fastEma[i]) && !math.IsNaN(slowEma[i]) {
			line[i] = fastEma[i] - slowEma[i]
			defined = append(defined, line[i])
			definedIdx = append(definedIdx, i)
		}
	}

	signalOnDefined := Ema(defined, signal)
	for j, i := range definedIdx {
		signalLine[i] = signalOnDefined[j]
		if !math.IsNaN(signalLine[i]) {
			histogram[i] = line[i] - signalLine[i]
		}
	}

	return line, signalLine, histogram
}

// Atr computes the average true range with Wilder smoothing.
func Atr(high, low, closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	tr := make([]float64, len(closes))
	tr[0] = high[0] - low[0]
	for i := 1; i < len(closes); i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - closes[i-1])
		lc := math.Abs(low[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	var seed float64
	for i := 1; i <= period; i++ {
		seed += tr[i]
	}
	out[period] = seed / float64(period)

	for i := period + 1; i < len(closes); i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}

	return out
}

// Bollinger computes the Bollinger bands: a simple moving average and bands
// at width standard deviations above and below it.
func Bollinger(values []float64, period int, width float64) (upper, middle, lower []float64) {
	middle = Sma(values, period)
	upper = nanSlice(len(values))
	lower = nanSlice(len(values))

	for i := period - 1; i < len(values); i++ {
		mean := middle[i]
		if math.IsNaN(mean) {
			continue
		}

		var variance float64
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		sigma := math.Sqrt(variance / float64(period))

		upper[i] = mean + width*sigma
		lower[i] = mean - width*sigma
	}

	return upper, middle, lower
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
