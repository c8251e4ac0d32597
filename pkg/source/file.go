// ABOUTME: File-backed source provider
// ABOUTME: Decodes whole files by extension and reads tag metadata
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/sirupsen/logrus"

	"github.com/Sendspin/multitrack-go/pkg/audio"
	"github.com/Sendspin/multitrack-go/pkg/audio/decode"
)

// FileProvider opens audio files from disk
type FileProvider struct {
	Logger *logrus.Entry

	// decodeFile is swapped in tests
	decodeFile func(path string) (*audio.PCM, error)
}

// NewFileProvider creates a provider using the registered decoders
func NewFileProvider(logger *logrus.Entry) *FileProvider {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &FileProvider{
		Logger:     logger,
		decodeFile: decode.DecodeFile,
	}
}

// Open decodes the file at path. Any failure wraps ErrUnreadable.
func (p *FileProvider) Open(path string) (Source, error) {
	pcm, err := p.decodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	if pcm.Format.SampleRate <= 0 || pcm.Format.Channels <= 0 {
		return nil, fmt.Errorf("%w: %s: invalid format %+v", ErrUnreadable, path, pcm.Format)
	}

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	meta := p.readMetadata(path, name)

	p.Logger.WithFields(logrus.Fields{
		"path":     path,
		"title":    meta.Title,
		"rate":     pcm.Format.SampleRate,
		"channels": pcm.Format.Channels,
		"duration": pcm.Duration(),
	}).Debug("Opened source")

	return &Decoded{
		name:     name,
		path:     path,
		pcm:      pcm,
		metadata: meta,
	}, nil
}

// readMetadata falls back to the file name when tags are absent
func (p *FileProvider) readMetadata(path, fallback string) Metadata {
	meta := Metadata{Title: fallback}

	f, err := os.Open(path)
	if err != nil {
		return meta
	}
	defer func() { _ = f.Close() }()

	m, err := tag.ReadFrom(f)
	if err != nil {
		p.Logger.WithField("path", path).Debugf("No tag metadata: %v", err)
		return meta
	}

	if m.Title() != "" {
		meta.Title = m.Title()
	}
	meta.Artist = m.Artist()
	meta.Album = m.Album()
	return meta
}
