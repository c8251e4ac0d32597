// ABOUTME: Ogg Opus audio decoder
// ABOUTME: Decodes Opus files to int32 samples via libopusfile
package decode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Sendspin/multitrack-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

const (
	// Opus always decodes at 48kHz
	opusSampleRate = 48000
	// Max frame size per channel (120ms at 48kHz)
	opusMaxFrame = 5760
)

var opusHeadMagic = []byte("OpusHead")

// DecodeOpus converts a whole Ogg Opus stream to int32 samples
func DecodeOpus(r io.ReadSeeker) (*audio.PCM, error) {
	// The stream reader needs the channel count up front; read it from the OpusHead packet
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read opus header: %w", err)
	}
	channels, err := opusChannels(head[:n])
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind opus stream: %w", err)
	}

	stream, err := opus.NewStream(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus stream: %w", err)
	}
	defer func() { _ = stream.Close() }()

	var samples []int32
	pcm16 := make([]int16, opusMaxFrame*channels)
	for {
		n, err := stream.Read(pcm16)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("opus decode failed: %w", err)
		}
		// n is samples per channel
		for _, s := range pcm16[:n*channels] {
			samples = append(samples, audio.SampleFromInt16(s))
		}
	}

	return &audio.PCM{
		Format: audio.Format{
			Codec:      "opus",
			SampleRate: opusSampleRate,
			Channels:   channels,
			BitDepth:   16,
		},
		Samples: samples,
	}, nil
}

// opusChannels extracts the output channel count from an OpusHead identification header
func opusChannels(head []byte) (int, error) {
	idx := bytes.Index(head, opusHeadMagic)
	// magic(8) + version(1) + channel count(1)
	if idx < 0 || idx+10 > len(head) {
		return 0, fmt.Errorf("not an ogg opus stream: OpusHead not found")
	}
	channels := int(head[idx+9])
	if channels == 0 {
		return 0, fmt.Errorf("opus header declares zero channels")
	}
	return channels, nil
}
