// ABOUTME: Ogg Vorbis audio decoder
// ABOUTME: Decodes Vorbis float samples to int32 samples
package decode

import (
	"fmt"
	"io"

	"github.com/Sendspin/multitrack-go/pkg/audio"
	"github.com/jfreymuth/oggvorbis"
)

// DecodeVorbis converts a whole Ogg Vorbis stream to int32 samples
func DecodeVorbis(r io.ReadSeeker) (*audio.PCM, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize a vorbis reader: %w", err)
	}

	channels := reader.Channels()
	if channels <= 0 {
		return nil, fmt.Errorf("vorbis stream has no channels")
	}

	var samples []int32
	buf := make([]float32, 4096*channels)
	for {
		n, err := reader.Read(buf)
		for _, s := range buf[:n] {
			samples = append(samples, audio.SampleFromFloat32(s))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("vorbis decode error: %w", err)
		}
	}

	return &audio.PCM{
		Format: audio.Format{
			Codec:      "vorbis",
			SampleRate: reader.SampleRate(),
			Channels:   channels,
			BitDepth:   32,
		},
		Samples: samples[:len(samples)-len(samples)%channels],
	}, nil
}
