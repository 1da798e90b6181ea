package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ajbucci/rustfmsynth-sub000/render"
)

// Handle is the coordination context's grip on one rendering context.
// It owns the module payload until the one-time transfer, the runtime
// handle, and the block clock that stands in for the audio hardware
// callback: a goroutine invoking RenderBlock every block duration from
// the moment the context exists, silence included.
type Handle struct {
	id      string
	runtime *render.Runtime

	mu      sync.Mutex
	payload []byte

	blocks chan []float32
	stop   chan struct{}
	done   chan struct{}
}

func newHandle(runtime *render.Runtime, payload []byte, sampleRate float64) *Handle {
	h := &Handle{
		id:      uuid.NewString(),
		runtime: runtime,
		payload: payload,
		blocks:  make(chan []float32, 8),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go h.clock(sampleRate)
	return h
}

// ID identifies the rendering context for logs.
func (h *Handle) ID() string { return h.id }

// Runtime returns the rendering runtime handle.
func (h *Handle) Runtime() *render.Runtime { return h.runtime }

// TakePayload surrenders the module payload. One-shot: the handle's
// reference is nulled and every later call returns nil, mirroring the
// transfer semantics of the context boundary.
func (h *Handle) TakePayload() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := h.payload
	h.payload = nil
	return p
}

// Blocks delivers rendered blocks to at most one consumer. Each block
// is a fresh slice. When no consumer keeps up, blocks are dropped
// rather than stalling the clock.
func (h *Handle) Blocks() <-chan []float32 { return h.blocks }

// clock drives the rendering runtime at the block cadence.
func (h *Handle) clock(sampleRate float64) {
	defer close(h.done)

	size := h.runtime.BlockSize()
	period := time.Duration(float64(size) / sampleRate * float64(time.Second))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	buf := make([]float32, size)
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			h.runtime.RenderBlock(buf)
			out := make([]float32, size)
			copy(out, buf)
			select {
			case h.blocks <- out:
			default:
			}
		}
	}
}

// close stops the clock and releases the engine. Idempotent via the
// bridge, which nulls its reference after calling.
func (h *Handle) close(ctx context.Context) error {
	close(h.stop)
	<-h.done
	return h.runtime.Close(ctx)
}
