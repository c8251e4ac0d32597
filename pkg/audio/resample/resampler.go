// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Carries the last input frame across chunks so block edges stay continuous
package resample

import "math"

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64 // next output position in input frames; -1 addresses lastSample
	lastSample []int32 // one sample per channel
	haveLast   bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastSample: make([]int32, channels),
	}
}

// Passthrough reports whether input and output rates match
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// Resample converts interleaved input at inputRate into interleaved output at outputRate.
// All input is consumed; output must hold at least MaxOutputSamples(len(input)).
// Returns the number of output samples written.
func (r *Resampler) Resample(input []int32, output []int32) int {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return 0
	}

	if r.Passthrough() {
		return copy(output, input[:inputFrames*r.channels])
	}

	outputFrames := len(output) / r.channels
	outIdx := 0

	for outIdx < outputFrames {
		inputIdx := int(math.Floor(r.position))

		// Need frames inputIdx and inputIdx+1
		if inputIdx+1 >= inputFrames {
			break
		}
		if inputIdx < 0 && !r.haveLast {
			r.position = 0
			inputIdx = 0
		}

		frac := r.position - float64(inputIdx)

		for ch := 0; ch < r.channels; ch++ {
			sample1 := r.at(input, inputIdx, ch)
			sample2 := r.at(input, inputIdx+1, ch)

			interpolated := float64(sample1)*(1.0-frac) + float64(sample2)*frac
			output[outIdx*r.channels+ch] = int32(interpolated)
		}

		outIdx++
		r.position += r.ratio
	}

	// Rebase onto the next chunk; the final input frame becomes index -1
	r.position -= float64(inputFrames)
	copy(r.lastSample, input[(inputFrames-1)*r.channels:inputFrames*r.channels])
	r.haveLast = true

	return outIdx * r.channels
}

func (r *Resampler) at(input []int32, frame, ch int) int32 {
	if frame < 0 {
		return r.lastSample[ch]
	}
	return input[frame*r.channels+ch]
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	r.haveLast = false
	for i := range r.lastSample {
		r.lastSample[i] = 0
	}
}

// MaxOutputSamples returns an output buffer size large enough for one Resample call
func (r *Resampler) MaxOutputSamples(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(math.Ceil(float64(inputFrames)/r.ratio)) + 2
	return outputFrames * r.channels
}
