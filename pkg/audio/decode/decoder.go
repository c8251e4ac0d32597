// ABOUTME: Decoder interface definition and extension registry
// ABOUTME: Common interface for all whole-file audio decoders
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Sendspin/multitrack-go/pkg/audio"
)

// ErrUnsupportedFormat is returned when no decoder handles a file extension
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decoder decodes an encoded stream into an in-memory PCM source
type Decoder interface {
	// Decode reads the whole stream and returns interleaved 24-bit samples
	Decode(r io.ReadSeeker) (*audio.PCM, error)
}

// DecoderFunc adapts a function to the Decoder interface
type DecoderFunc func(r io.ReadSeeker) (*audio.PCM, error)

// Decode calls f(r)
func (f DecoderFunc) Decode(r io.ReadSeeker) (*audio.PCM, error) {
	return f(r)
}

var decoders = map[string]Decoder{
	".mp3":  DecoderFunc(DecodeMP3),
	".flac": DecoderFunc(DecodeFLAC),
	".wav":  DecoderFunc(DecodeWAV),
	".wave": DecoderFunc(DecodeWAV),
	".ogg":  DecoderFunc(DecodeVorbis),
	".oga":  DecoderFunc(DecodeVorbis),
	".opus": DecoderFunc(DecodeOpus),
}

// ForExtension returns the decoder registered for a file extension (".mp3", ".flac", ...)
func ForExtension(ext string) (Decoder, error) {
	d, ok := decoders[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, ext, strings.Join(Extensions(), ", "))
	}
	return d, nil
}

// Extensions lists the supported file extensions in sorted order
func Extensions() []string {
	exts := make([]string, 0, len(decoders))
	for ext := range decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// DecodeFile opens and fully decodes the file at path, picking the decoder by extension
func DecodeFile(path string) (*audio.PCM, error) {
	d, err := ForExtension(filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer func() { _ = f.Close() }()

	pcm, err := d.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return pcm, nil
}
