package analysis

import (
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// DecodedAudio is a fully decoded, downmixed-to-mono audio buffer.
type DecodedAudio struct {
	Samples    []float64 // mono, normalized to [-1, 1]
	SampleRate int
	Duration   float64 // seconds, derived from the decoded sample count
}

// DecodeMP3 decodes an entire MP3 stream into a mono float buffer. go-mp3
// always emits 16-bit little-endian stereo, so each frame is two int16
// samples averaged into one.
func DecodeMP3(r io.Reader) (*DecodedAudio, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode failed: %w", err)
	}

	sr := dec.SampleRate()
	if sr <= 0 {
		return nil, fmt.Errorf("mp3 reported invalid sample rate %d", sr)
	}

	var samples []float64
	if n := dec.Length(); n > 0 {
		samples = make([]float64, 0, n/4)
	}

	buf := make([]byte, 8192)
	for {
		n, err := dec.Read(buf)
		for i := 0; i+3 < n; i += 4 {
			l := int16(buf[i]) | int16(buf[i+1])<<8
			rs := int16(buf[i+2]) | int16(buf[i+3])<<8
			samples = append(samples, (float64(l)+float64(rs))/2/32768.0)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("mp3 read failed: %w", err)
		}
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("mp3 stream contains no samples")
	}

	return &DecodedAudio{
		Samples:    samples,
		SampleRate: sr,
		Duration:   float64(len(samples)) / float64(sr),
	}, nil
}
