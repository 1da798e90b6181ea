package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	fmsynth "github.com/ajbucci/rustfmsynth-sub000"
	"github.com/ajbucci/rustfmsynth-sub000/engine"
	"github.com/ajbucci/rustfmsynth-sub000/errors"
	"github.com/ajbucci/rustfmsynth-sub000/patch"
	"github.com/ajbucci/rustfmsynth-sub000/protocol"
	"github.com/ajbucci/rustfmsynth-sub000/render"
)

// bootState is the bridge's explicit readiness machine. Guarded
// transitions under the mutex make concurrent EnsureReady entry safe
// without relying on incidental promise caching.
type bootState int32

const (
	bootIdle bootState = iota
	bootInFlight
	bootReady
	bootFailed
)

// attempt is one bootstrap in flight: waiters block on done and read
// err afterward.
type attempt struct {
	done chan struct{}
	err  error
}

// Options tunes a Bridge.
type Options struct {
	SampleRate float64
	BlockSize  int

	// AckTimeout bounds the wait for the initialized acknowledgment
	// after the payload transfer. Zero means 10 seconds.
	AckTimeout time.Duration

	// InitialPatch is flushed after the acknowledgment. Nil means
	// patch.Default.
	InitialPatch *patch.Patch

	// Factory overrides the engine used by the rendering context.
	// Nil means the wazero engine.
	Factory render.SynthFactory

	// OnProcessingError observes non-fatal engine failures reported
	// by the rendering context.
	OnProcessingError func(protocol.ProcessingError)

	Logger *zap.Logger
}

// Bridge owns the session lifecycle on the coordination side. It is
// the sole writer of control messages; no other component touches the
// rendering context's channels.
type Bridge struct {
	fetcher Fetcher
	opts    Options
	log     *zap.Logger

	mu      sync.Mutex
	state   bootState
	attempt *attempt
	handle  *Handle
	pending []protocol.Message
}

// New creates an idle bridge. Nothing is fetched until EnsureReady.
func New(fetcher Fetcher, opts Options) *Bridge {
	if opts.SampleRate <= 0 {
		opts.SampleRate = fmsynth.DefaultSampleRate
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = fmsynth.DefaultBlockSize
	}
	if opts.AckTimeout <= 0 {
		opts.AckTimeout = 10 * time.Second
	}
	if opts.InitialPatch == nil {
		opts.InitialPatch = patch.Default(patch.OperatorCount)
	}
	if opts.Factory == nil {
		opts.Factory = func(ctx context.Context, payload []byte, sampleRate float64, blockSize int) (fmsynth.Synth, error) {
			return engine.New(ctx, payload, sampleRate, blockSize, nil)
		}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Bridge{
		fetcher: fetcher,
		opts:    opts,
		log:     opts.Logger,
	}
}

// EnsureReady makes the session ready, bootstrapping at most once.
// Concurrent callers while a bootstrap is in flight all wait on the
// same attempt; exactly one payload fetch and one transfer happen per
// successful bootstrap. On failure every waiter receives the error and
// the attempt is cleared, so a later call retries from scratch.
//
// ctx bounds this caller's wait only. The attempt itself is not
// cancelled; an abandoned attempt still completes or fails and
// determines the next call's starting state.
func (b *Bridge) EnsureReady(ctx context.Context) error {
	b.mu.Lock()
	switch b.state {
	case bootReady:
		b.mu.Unlock()
		return nil
	case bootInFlight:
		a := b.attempt
		b.mu.Unlock()
		return await(ctx, a)
	default: // bootIdle, bootFailed
		a := &attempt{done: make(chan struct{})}
		b.attempt = a
		b.state = bootInFlight
		b.mu.Unlock()
		go b.bootstrap(a)
		return await(ctx, a)
	}
}

func await(ctx context.Context, a *attempt) error {
	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send forwards one control message. Before readiness it is queued and
// flushed after the initial configuration; it never fails and never
// blocks the caller on the rendering context.
func (b *Bridge) Send(msg protocol.Message) {
	if err := msg.Validate(); err != nil {
		b.log.Warn("rejecting invalid control message",
			zap.String("tag", msg.Tag()), zap.Error(err))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != bootReady {
		b.pending = append(b.pending, msg)
		return
	}
	b.deliverLocked(msg)
}

func (b *Bridge) deliverLocked(msg protocol.Message) {
	select {
	case b.handle.Runtime().Inbox() <- msg:
	default:
		// The renderer drains every block; a full inbox means it has
		// stalled, and dropping beats blocking the UI thread.
		b.log.Warn("inbox full, dropping control message", zap.String("tag", msg.Tag()))
	}
}

// Handle exposes the current rendering context, or nil before the
// first successful bootstrap. The block channel on it feeds output
// backends.
func (b *Bridge) Handle() *Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handle
}

// bootstrap runs the full sequence for one attempt: fetch, create the
// rendering context, transfer the payload, await the acknowledgment,
// flush the initial configuration and the queue.
func (b *Bridge) bootstrap(a *attempt) {
	payload, err := b.fetcher.Fetch(context.Background())
	if err != nil {
		b.fail(a, nil, errors.Wrap(errors.ClassTransport, errors.StageFetch, err, "bootstrap"))
		return
	}
	b.log.Info("module payload fetched", zap.Int("bytes", len(payload)))

	runtime := render.New(b.opts.Factory, render.Options{
		BlockSize: b.opts.BlockSize,
		Logger:    b.log.Named("render"),
	})
	handle := newHandle(runtime, payload, b.opts.SampleRate)

	// The one-time transfer: the handle's reference is gone from the
	// coordination context before the message is even delivered.
	init := protocol.Init{Payload: handle.TakePayload(), SampleRate: b.opts.SampleRate}
	runtime.Inbox() <- init

	if err := b.awaitAck(handle); err != nil {
		b.fail(a, handle, err)
		return
	}
	b.log.Info("rendering context ready", zap.String("session", handle.ID()))

	msgs, err := protocol.PatchMessages(b.opts.InitialPatch)
	if err != nil {
		b.fail(a, handle, err)
		return
	}
	for _, msg := range msgs {
		runtime.Inbox() <- msg
	}

	b.mu.Lock()
	b.state = bootReady
	b.handle = handle
	b.attempt = nil
	queued := b.pending
	b.pending = nil
	for _, msg := range queued {
		b.deliverLocked(msg)
	}
	b.mu.Unlock()

	go b.watchEvents(handle)
	close(a.done)
}

// awaitAck waits for initialized or init_error from the rendering
// context, bounded by the ack timeout.
func (b *Bridge) awaitAck(handle *Handle) error {
	timer := time.NewTimer(b.opts.AckTimeout)
	defer timer.Stop()

	for {
		select {
		case msg := <-handle.Runtime().Events():
			switch m := msg.(type) {
			case protocol.Initialized:
				return nil
			case protocol.InitError:
				return errors.Transport(errors.StageInit, "audio module init",
					fmt.Errorf("%s", m.Diagnostic))
			default:
				// Nothing else is expected before the acknowledgment.
				b.log.Warn("unexpected event during bootstrap", zap.String("tag", msg.Tag()))
			}
		case <-timer.C:
			return errors.Transport(errors.StageInit, "audio module init",
				fmt.Errorf("no acknowledgment within %s", b.opts.AckTimeout))
		}
	}
}

// fail rejects the attempt for every waiter and clears it so the next
// EnsureReady starts over. The half-built rendering context, if any,
// is torn down.
func (b *Bridge) fail(a *attempt, handle *Handle, err error) {
	if handle != nil {
		if cerr := handle.close(context.Background()); cerr != nil {
			b.log.Warn("teardown after failed bootstrap", zap.Error(cerr))
		}
	}

	b.mu.Lock()
	b.state = bootFailed
	b.attempt = nil
	b.mu.Unlock()

	b.log.Error("bootstrap failed", zap.Error(err))
	a.err = err
	close(a.done)
}

// watchEvents surfaces post-bootstrap events from the rendering
// context until the handle's block channel closes with the session.
func (b *Bridge) watchEvents(handle *Handle) {
	for {
		select {
		case <-handle.done:
			return
		case msg := <-handle.Runtime().Events():
			switch m := msg.(type) {
			case protocol.ProcessingError:
				b.log.Warn("engine reported processing error",
					zap.String("tag", m.MessageTag),
					zap.String("diagnostic", m.Diagnostic))
				if b.opts.OnProcessingError != nil {
					b.opts.OnProcessingError(m)
				}
			default:
				b.log.Warn("unexpected event", zap.String("tag", msg.Tag()))
			}
		}
	}
}

// Close tears down the session: the block clock stops, the engine
// closes, and the bridge returns to idle. A later EnsureReady boots a
// fresh context.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	handle := b.handle
	b.handle = nil
	b.state = bootIdle
	b.pending = nil
	b.mu.Unlock()

	if handle == nil {
		return nil
	}
	return handle.close(ctx)
}
