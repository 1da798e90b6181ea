// Package audio contains the output backends that consume rendered
// blocks: a portaudio speaker sink and a WAV file writer.
package audio

import (
	"context"
	"fmt"

	pa "github.com/gordonklaus/portaudio"
)

// Play opens the default output device and plays blocks until ctx is
// cancelled or the channel closes. Mono blocks of blockSize samples
// are written as they arrive; a missing block plays through as a gap
// rather than stalling the stream teardown.
func Play(ctx context.Context, blocks <-chan []float32, sampleRate float64, blockSize int) error {
	if err := pa.Initialize(); err != nil {
		return fmt.Errorf("unable to setup portaudio: %w", err)
	}
	defer pa.Terminate()

	buf := make([]float32, blockSize)
	stream, err := pa.OpenDefaultStream(0, 1, sampleRate, blockSize, &buf)
	if err != nil {
		return fmt.Errorf("error opening default output via portaudio: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting stream: %w", err)
	}
	defer stream.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case block, ok := <-blocks:
			if !ok {
				return nil
			}
			copy(buf, block)
			if err := stream.Write(); err != nil {
				return fmt.Errorf("write error - %w", err)
			}
		}
	}
}
