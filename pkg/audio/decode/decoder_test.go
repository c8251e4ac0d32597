// ABOUTME: Tests for decoder registry and whole-file decoders
// ABOUTME: Tests extension lookup, WAV round trip and invalid input handling
package decode

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForExtension(t *testing.T) {
	for _, ext := range []string{".mp3", ".MP3", ".flac", ".wav", ".ogg", ".opus"} {
		t.Run(ext, func(t *testing.T) {
			d, err := ForExtension(ext)
			require.NoError(t, err)
			assert.NotNil(t, d)
		})
	}
}

func TestForExtension_Unsupported(t *testing.T) {
	d, err := ForExtension(".m4a")
	assert.Nil(t, d)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), ".m4a")
	assert.Contains(t, err.Error(), ".flac")
}

func TestExtensionsSorted(t *testing.T) {
	exts := Extensions()
	require.NotEmpty(t, exts)
	for i := 1; i < len(exts); i++ {
		assert.Less(t, exts[i-1], exts[i])
	}
}

func writeWAV(t *testing.T, path string, sampleRate, bitDepth, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestDecodeFile_WAV16Stereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, 44100, 16, 2, []int{0, 100, -100, 32767, 1, -1})

	pcm, err := DecodeFile(path)
	require.NoError(t, err)

	assert.Equal(t, "pcm", pcm.Format.Codec)
	assert.Equal(t, 44100, pcm.Format.SampleRate)
	assert.Equal(t, 2, pcm.Format.Channels)
	assert.Equal(t, 16, pcm.Format.BitDepth)
	assert.Equal(t, int64(3), pcm.Frames())
	assert.Equal(t, []int32{0, 100 << 8, -100 << 8, 32767 << 8, 1 << 8, -1 << 8}, pcm.Samples)
}

func TestDecodeFile_WAV24Mono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	writeWAV(t, path, 48000, 24, 1, []int{0x123456, 256})

	pcm, err := DecodeFile(path)
	require.NoError(t, err)

	assert.Equal(t, 48000, pcm.Format.SampleRate)
	assert.Equal(t, 1, pcm.Format.Channels)
	assert.Equal(t, []int32{0x123456, 256}, pcm.Samples)
}

func TestDecodeFile_Missing(t *testing.T) {
	_, err := DecodeFile(filepath.Join(t.TempDir(), "missing.flac"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open audio file")
}

func TestDecodeFile_UnsupportedExtension(t *testing.T) {
	_, err := DecodeFile("notes.txt")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecoders_RejectGarbage(t *testing.T) {
	garbage := bytes.Repeat([]byte{0x13, 0x37}, 64)

	tests := []struct {
		name   string
		decode DecoderFunc
	}{
		{"wav", DecodeWAV},
		{"flac", DecodeFLAC},
		{"vorbis", DecodeVorbis},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcm, err := tt.decode(bytes.NewReader(garbage))
			assert.Error(t, err)
			assert.Nil(t, pcm)
		})
	}
}

func TestOpusChannels(t *testing.T) {
	page := append([]byte("OggS\x00\x02"), make([]byte, 22)...)
	head := append([]byte("OpusHead"), 1, 2, 0x38, 0x01)
	ch, err := opusChannels(append(page, head...))
	require.NoError(t, err)
	assert.Equal(t, 2, ch)

	_, err = opusChannels([]byte("OggS not opus"))
	assert.Error(t, err)

	_, err = opusChannels(append([]byte("OpusHead"), 1, 0))
	assert.Error(t, err)
}
