// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Provides whole-file decoders for MP3, FLAC, WAV, Vorbis and Opus
// Package decode provides audio decoders for various codecs.
//
// Supports: MP3, FLAC, WAV (PCM), Ogg Vorbis, Ogg Opus
//
// Decoders read a complete stream and output an in-memory audio.PCM with
// int32 samples in 24-bit range at the source's native sample rate.
// Nothing is resampled here; rate conversion belongs to the render engine.
//
// Example:
//
//	pcm, err := decode.DecodeFile("drums.flac")
//	fmt.Println(pcm.Frames(), pcm.Format.SampleRate)
package decode
