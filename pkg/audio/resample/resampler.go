// ABOUTME: Block-averaging decimator for converting audio sample rates
// ABOUTME: Averages each input window that maps onto one output sample
package resample

import (
	"fmt"
	"math"
)

// Decimator converts audio from a higher sample rate to a lower one by
// averaging all input samples whose time window maps to each output sample.
// When input and output rates are equal the input passes through unchanged.
type Decimator struct {
	inputRate  int
	outputRate int
	ratio      float64
}

// New creates a decimator for the given rates. The output rate must not
// exceed the input rate; upsampling is not supported.
func New(inputRate, outputRate int) (*Decimator, error) {
	if inputRate <= 0 || outputRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: %d -> %d", inputRate, outputRate)
	}
	if outputRate > inputRate {
		return nil, fmt.Errorf("upsampling not supported: %d -> %d", inputRate, outputRate)
	}

	return &Decimator{
		inputRate:  inputRate,
		outputRate: outputRate,
		ratio:      float64(inputRate) / float64(outputRate),
	}, nil
}

// Resample converts one buffer of mono samples to the output rate.
// The output length is round(len(input) * outputRate / inputRate).
func (d *Decimator) Resample(input []float32) []float32 {
	if len(input) == 0 {
		return nil
	}

	if d.inputRate == d.outputRate {
		out := make([]float32, len(input))
		copy(out, input)
		return out
	}

	outLen := int(math.Round(float64(len(input)) * float64(d.outputRate) / float64(d.inputRate)))
	out := make([]float32, outLen)

	for i := 0; i < outLen; i++ {
		start := int(float64(i) * d.ratio)
		end := int(float64(i+1) * d.ratio)
		if end > len(input) {
			end = len(input)
		}
		if start >= len(input) {
			start = len(input) - 1
		}
		if end <= start {
			out[i] = input[start]
			continue
		}

		var sum float64
		for j := start; j < end; j++ {
			sum += float64(input[j])
		}
		out[i] = float32(sum / float64(end-start))
	}

	return out
}

// OutputLen returns the number of output samples produced for an input length
func (d *Decimator) OutputLen(inputLen int) int {
	return int(math.Round(float64(inputLen) * float64(d.outputRate) / float64(d.inputRate)))
}

// Rates returns the configured input and output rates
func (d *Decimator) Rates() (int, int) {
	return d.inputRate, d.outputRate
}
