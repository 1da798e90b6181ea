package render

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	fmsynth "github.com/ajbucci/rustfmsynth-sub000"
	"github.com/ajbucci/rustfmsynth-sub000/protocol"
)

// State is the runtime's init state.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// SynthFactory instantiates the audio module from its payload bytes.
// The wazero engine provides the production implementation; tests
// substitute a fake.
type SynthFactory func(ctx context.Context, payload []byte, sampleRate float64, blockSize int) (fmsynth.Synth, error)

// Options tunes a Runtime.
type Options struct {
	BlockSize int
	// InboxDepth bounds pending control messages; the coordination
	// side paces itself, so overflow means a bug and is logged.
	InboxDepth int
	EventDepth int
	Logger     *zap.Logger
}

type initResult struct {
	synth fmsynth.Synth
	err   error
}

// Runtime is the rendering-context message loop and block producer.
// RenderBlock must be called from a single goroutine (the audio
// clock); every other field is confined to that goroutine except the
// channels and the state word.
type Runtime struct {
	factory SynthFactory
	log     *zap.Logger

	in     chan protocol.Message
	events chan protocol.Message

	state    atomic.Int32
	synth    fmsynth.Synth
	initDone chan initResult

	blockSize int
}

// New creates a runtime in StateUninitialized. Nothing happens until
// an Init message arrives on the inbox.
func New(factory SynthFactory, opts Options) *Runtime {
	if opts.BlockSize <= 0 {
		opts.BlockSize = fmsynth.DefaultBlockSize
	}
	if opts.InboxDepth <= 0 {
		opts.InboxDepth = 256
	}
	if opts.EventDepth <= 0 {
		opts.EventDepth = 16
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runtime{
		factory:   factory,
		log:       opts.Logger,
		in:        make(chan protocol.Message, opts.InboxDepth),
		events:    make(chan protocol.Message, opts.EventDepth),
		initDone:  make(chan initResult, 1),
		blockSize: opts.BlockSize,
	}
}

// Inbox is the control-message channel (coordination → rendering).
func (r *Runtime) Inbox() chan<- protocol.Message { return r.in }

// Events carries acknowledgments and processing errors
// (rendering → coordination).
func (r *Runtime) Events() <-chan protocol.Message { return r.events }

// State reports the current init state.
func (r *Runtime) State() State { return State(r.state.Load()) }

// BlockSize reports the fixed frames-per-block.
func (r *Runtime) BlockSize() int { return r.blockSize }

// RenderBlock fills out with the next block. It is synchronous and
// non-blocking: pending messages are drained with non-blocking
// receives, instantiation completion is polled, and the block is
// silence unless the runtime is Ready. It never fails.
func (r *Runtime) RenderBlock(out []float32) {
	r.pollInit()
	r.drain()

	if r.State() != StateReady {
		zero(out)
		return
	}
	if err := r.synth.Render(out); err != nil {
		zero(out)
		r.report("render", err)
	}
}

// pollInit observes a finished instantiation, if any.
func (r *Runtime) pollInit() {
	if r.State() != StateInitializing {
		return
	}
	select {
	case res := <-r.initDone:
		if res.err != nil {
			r.state.Store(int32(StateErrored))
			r.log.Error("audio module init failed", zap.Error(res.err))
			r.emit(protocol.InitError{Diagnostic: res.err.Error()})
			return
		}
		r.synth = res.synth
		r.state.Store(int32(StateReady))
		r.log.Info("audio module ready")
		r.emit(protocol.Initialized{})
	default:
	}
}

func (r *Runtime) drain() {
	for {
		select {
		case msg := <-r.in:
			r.handle(msg)
		default:
			return
		}
	}
}

func (r *Runtime) handle(msg protocol.Message) {
	if init, ok := msg.(protocol.Init); ok {
		r.handleInit(init)
		return
	}

	if r.State() != StateReady {
		// The bridge withholds control messages until after the
		// acknowledgment, so anything here is out of order.
		r.log.Warn("dropping control message before ready",
			zap.String("tag", msg.Tag()),
			zap.String("state", r.State().String()))
		return
	}

	if err := msg.Validate(); err != nil {
		r.log.Warn("ignoring invalid control message",
			zap.String("tag", msg.Tag()), zap.Error(err))
		return
	}

	if err := r.apply(msg); err != nil {
		r.report(msg.Tag(), err)
	}
}

// handleInit starts instantiation on its own goroutine. A fresh init is
// accepted from Uninitialized and from Errored (the retry path); while
// Initializing or Ready it is ignored.
func (r *Runtime) handleInit(init protocol.Init) {
	switch r.State() {
	case StateUninitialized, StateErrored:
	default:
		r.log.Warn("ignoring init message", zap.String("state", r.State().String()))
		return
	}

	if err := init.Validate(); err != nil {
		r.state.Store(int32(StateErrored))
		r.emit(protocol.InitError{Diagnostic: err.Error()})
		return
	}

	r.state.Store(int32(StateInitializing))
	payload, sampleRate, blockSize := init.Payload, init.SampleRate, r.blockSize
	go func() {
		synth, err := r.factory(context.Background(), payload, sampleRate, blockSize)
		r.initDone <- initResult{synth: synth, err: err}
	}()
}

// apply dispatches one validated control message to the engine. The
// recover keeps a panicking engine call from taking down the audio
// loop; it surfaces as a processing error like any other failure.
func (r *Runtime) apply(msg protocol.Message) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic applying %s: %v", msg.Tag(), p)
		}
	}()

	switch m := msg.(type) {
	case protocol.NoteOn:
		return r.synth.NoteOn(m.Note, m.Velocity)
	case protocol.NoteOff:
		return r.synth.NoteOff(m.Note)
	case protocol.SetAlgorithm:
		return r.synth.SetAlgorithm(m.Rows)
	case protocol.SetOperatorRatio:
		return r.synth.SetOperatorRatio(m.Op, m.Ratio)
	case protocol.SetOperatorFixedFrequency:
		return r.synth.SetOperatorFixedFrequency(m.Op, m.Hz)
	case protocol.SetOperatorDetune:
		return r.synth.SetOperatorDetune(m.Op, m.Cents)
	case protocol.SetOperatorModulationIndex:
		return r.synth.SetOperatorModulationIndex(m.Op, m.Index)
	case protocol.SetOperatorWaveform:
		return r.synth.SetOperatorWaveform(m.Op, m.Waveform)
	case protocol.SetOperatorEnvelope:
		return r.synth.SetOperatorEnvelope(m.Op, m.Attack, m.Decay, m.Sustain, m.Release)
	case protocol.SetOperatorFilter:
		return r.synth.SetOperatorFilter(m.Op, m.Descriptor)
	case protocol.RemoveOperatorFilter:
		return r.synth.RemoveOperatorFilter(m.Op, m.FilterType)
	case protocol.SetEffect:
		return r.synth.SetEffect(m.Slot, m.Descriptor)
	case protocol.RemoveEffect:
		return r.synth.RemoveEffect(m.Slot)
	case protocol.SetMasterVolume:
		return r.synth.SetMasterVolume(m.Gain)
	default:
		// Forward compatibility: an unknown kind is logged, never fatal.
		r.log.Warn("ignoring unknown control message", zap.String("tag", msg.Tag()))
		return nil
	}
}

func (r *Runtime) report(tag string, err error) {
	r.log.Warn("control message failed", zap.String("tag", tag), zap.Error(err))
	r.emit(protocol.ProcessingError{MessageTag: tag, Diagnostic: err.Error()})
}

// emit never blocks; if the coordination side is not reading events,
// dropping one beats stalling the audio clock.
func (r *Runtime) emit(msg protocol.Message) {
	select {
	case r.events <- msg:
	default:
		r.log.Warn("event channel full, dropping", zap.String("tag", msg.Tag()))
	}
}

// Close releases the engine instance. Call after the audio clock has
// stopped; RenderBlock must not run concurrently.
func (r *Runtime) Close(ctx context.Context) error {
	r.pollInit()
	if r.synth != nil {
		err := r.synth.Close(ctx)
		r.synth = nil
		r.state.Store(int32(StateUninitialized))
		return err
	}
	return nil
}

func zero(out []float32) {
	for i := range out {
		out[i] = 0
	}
}
