// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 audio to int32 samples
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Sendspin/multitrack-go/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3 decoder output is always 16-bit stereo
const mp3Channels = 2

// DecodeMP3 converts a whole MP3 stream to int32 samples
func DecodeMP3(r io.ReadSeeker) (*audio.PCM, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	var samples []int32
	if length := decoder.Length(); length > 0 {
		samples = make([]int32, 0, length/2)
	}

	buf := make([]byte, 8192)
	for {
		n, err := decoder.Read(buf)
		// Convert bytes to int16 then to int32
		for i := 0; i+1 < n; i += 2 {
			sample16 := int16(binary.LittleEndian.Uint16(buf[i:]))
			samples = append(samples, audio.SampleFromInt16(sample16))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mp3 decode error: %w", err)
		}
	}

	// Drop a trailing partial frame
	samples = samples[:len(samples)-len(samples)%mp3Channels]

	return &audio.PCM{
		Format: audio.Format{
			Codec:      "mp3",
			SampleRate: decoder.SampleRate(),
			Channels:   mp3Channels,
			BitDepth:   16,
		},
		Samples: samples,
	}, nil
}
