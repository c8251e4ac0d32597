// ABOUTME: WAV audio decoder
// ABOUTME: Decodes RIFF/WAVE PCM audio to int32 samples
package decode

import (
	"fmt"
	"io"

	"github.com/Sendspin/multitrack-go/pkg/audio"
	"github.com/go-audio/wav"
)

// DecodeWAV converts a whole WAV file to int32 samples
func DecodeWAV(r io.ReadSeeker) (*audio.PCM, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode error: %w", err)
	}

	channels := int(decoder.NumChans)
	sampleRate := int(decoder.SampleRate)
	bitDepth := int(decoder.BitDepth)
	if channels == 0 || sampleRate == 0 || bitDepth == 0 {
		return nil, fmt.Errorf("invalid wav header")
	}

	samples := make([]int32, len(buf.Data)-len(buf.Data)%channels)
	for i := range samples {
		samples[i] = audio.SampleFromBitDepth(int32(buf.Data[i]), bitDepth)
	}

	return &audio.PCM{
		Format: audio.Format{
			Codec:      "pcm",
			SampleRate: sampleRate,
			Channels:   channels,
			BitDepth:   bitDepth,
		},
		Samples: samples,
	}, nil
}
