package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WriteWAV consumes blocks until seconds of audio have arrived and
// writes them as a 16-bit mono PCM WAV file. The block clock paces
// delivery, so a 2-second capture takes about 2 seconds of wall time.
func WriteWAV(ctx context.Context, w io.Writer, blocks <-chan []float32, sampleRate float64, seconds float64) error {
	if seconds <= 0 {
		return fmt.Errorf("duration %g must be positive", seconds)
	}
	want := int(sampleRate * seconds)

	samples := make([]float32, 0, want)
	for len(samples) < want {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case block, ok := <-blocks:
			if !ok {
				return fmt.Errorf("block channel closed after %d of %d samples", len(samples), want)
			}
			samples = append(samples, block...)
		}
	}
	samples = samples[:want]

	return writePCM16(w, samples, uint32(sampleRate))
}

func writePCM16(w io.Writer, samples []float32, sampleRate uint32) error {
	dataLen := uint32(len(samples) * 2)

	var header [44]byte
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], 36+dataLen)
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)                // fmt chunk size
	binary.LittleEndian.PutUint16(header[20:], 1)                 // PCM
	binary.LittleEndian.PutUint16(header[22:], 1)                 // mono
	binary.LittleEndian.PutUint32(header[24:], sampleRate)        // sample rate
	binary.LittleEndian.PutUint32(header[28:], sampleRate*2)      // byte rate
	binary.LittleEndian.PutUint16(header[32:], 2)                 // block align
	binary.LittleEndian.PutUint16(header[34:], 16)                // bits per sample
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], dataLen)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing wav header: %w", err)
	}

	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16(math.Round(float64(clip(s)) * 32767))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("writing wav data: %w", err)
	}
	return nil
}

func clip(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
