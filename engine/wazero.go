package engine

import (
	"context"
	"math"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/ajbucci/rustfmsynth-sub000/errors"
)

// WazeroSynth implements fmsynth.Synth over an instantiated audio
// module. It is confined to the rendering goroutine; no method is safe
// for concurrent use.
type WazeroSynth struct {
	runtime wazero.Runtime
	module  api.Module
	fns     map[string]api.Function

	// ctx is the lifetime context for guest calls. The render path
	// must not depend on per-call contexts.
	ctx context.Context

	// renderPtr is the guest-side sample buffer, allocated once.
	renderPtr    uint32
	renderFrames uint32

	// scratch is the guest-side blob buffer for descriptor setters.
	scratchPtr uint32
	scratchCap uint32
}

// Config bounds the instantiated module.
type Config struct {
	// MemoryLimitPages caps guest memory in 64KB pages. 0 means 16MB.
	MemoryLimitPages uint32
}

const defaultMemoryPages = 256 // 16MB

// New compiles and instantiates the audio module from its transferred
// payload bytes, verifies the export surface, calls the module's init
// with the sample rate, and allocates the render buffer for blockSize
// frames.
func New(ctx context.Context, payload []byte, sampleRate float64, blockSize int, cfg *Config) (*WazeroSynth, error) {
	pages := uint32(defaultMemoryPages)
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		pages = cfg.MemoryLimitPages
	}
	runtimeCfg := wazero.NewRuntimeConfig().WithMemoryLimitPages(pages)
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	compiled, err := rt.CompileModule(ctx, payload)
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Transport(errors.StageInit, "compile audio module", err)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("fmsynth"))
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Transport(errors.StageInit, "instantiate audio module", err)
	}

	s := &WazeroSynth{
		runtime: rt,
		module:  mod,
		fns:     make(map[string]api.Function, len(requiredExports)),
		ctx:     ctx,
	}

	for _, name := range requiredExports {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			rt.Close(ctx)
			return nil, errors.New(errors.ClassTransport, errors.StageInit).
				Op("resolve exports").Detail("module is missing export %q", name).Build()
		}
		s.fns[name] = fn
	}

	if _, err := s.fns[expInit].Call(ctx, api.EncodeF64(sampleRate)); err != nil {
		rt.Close(ctx)
		return nil, errors.Engine(errors.StageInit, expInit, err)
	}

	s.renderFrames = uint32(blockSize)
	s.renderPtr, err = s.alloc(s.renderFrames * 4)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}

	Logger().Info("audio module instantiated",
		zap.Int("payload_bytes", len(payload)),
		zap.Float64("sample_rate", sampleRate),
		zap.Int("block_size", blockSize))

	return s, nil
}

func (s *WazeroSynth) alloc(size uint32) (uint32, error) {
	res, err := s.fns[expAlloc].Call(s.ctx, uint64(size))
	if err != nil {
		return 0, errors.Engine(errors.StageInit, expAlloc, err)
	}
	ptr := api.DecodeU32(res[0])
	if ptr == 0 {
		return 0, errors.New(errors.ClassEngine, errors.StageInit).
			Op(expAlloc).Detail("guest allocator returned null for %d bytes", size).Build()
	}
	return ptr, nil
}

// ensureScratch grows the guest blob buffer when a descriptor exceeds
// the current capacity. Control path only.
func (s *WazeroSynth) ensureScratch(size uint32) error {
	if s.scratchPtr != 0 && size <= s.scratchCap {
		return nil
	}
	if s.scratchPtr != 0 {
		if _, err := s.fns[expFree].Call(s.ctx, uint64(s.scratchPtr), uint64(s.scratchCap)); err != nil {
			return errors.Engine(errors.StageApply, expFree, err)
		}
		s.scratchPtr, s.scratchCap = 0, 0
	}
	capacity := uint32(256)
	for capacity < size {
		capacity *= 2
	}
	ptr, err := s.alloc(capacity)
	if err != nil {
		return err
	}
	s.scratchPtr, s.scratchCap = ptr, capacity
	return nil
}

func (s *WazeroSynth) call(name string, args ...uint64) error {
	if _, err := s.fns[name].Call(s.ctx, args...); err != nil {
		return errors.Engine(errors.StageApply, name, err)
	}
	return nil
}

// callBlob writes data into the guest scratch buffer and invokes an
// export taking (op, ptr, len).
func (s *WazeroSynth) callBlob(name string, index int, data []byte) error {
	if err := s.ensureScratch(uint32(len(data))); err != nil {
		return err
	}
	if !s.module.Memory().Write(s.scratchPtr, data) {
		return errors.New(errors.ClassEngine, errors.StageApply).
			Op(name).Detail("blob write outside guest memory").Build()
	}
	return s.call(name, uint64(uint32(index)), uint64(s.scratchPtr), uint64(uint32(len(data))))
}

func (s *WazeroSynth) NoteOn(note, velocity uint8) error {
	return s.call(expNoteOn, uint64(note), uint64(velocity))
}

func (s *WazeroSynth) NoteOff(note uint8) error {
	return s.call(expNoteOff, uint64(note))
}

// SetAlgorithm flattens the dense matrix row-major into guest memory
// and passes (ptr, rows). The module knows the row stride is rows+1.
func (s *WazeroSynth) SetAlgorithm(rows [][]uint8) error {
	n := len(rows)
	flat := make([]byte, 0, n*(n+1))
	for _, row := range rows {
		flat = append(flat, row...)
	}
	if err := s.ensureScratch(uint32(len(flat))); err != nil {
		return err
	}
	if !s.module.Memory().Write(s.scratchPtr, flat) {
		return errors.New(errors.ClassEngine, errors.StageApply).
			Op(expSetAlgorithm).Detail("matrix write outside guest memory").Build()
	}
	return s.call(expSetAlgorithm, uint64(s.scratchPtr), uint64(uint32(n)))
}

func (s *WazeroSynth) SetOperatorRatio(op int, ratio float64) error {
	return s.call(expSetRatio, uint64(uint32(op)), api.EncodeF64(ratio))
}

func (s *WazeroSynth) SetOperatorFixedFrequency(op int, hz float64) error {
	return s.call(expSetFixedFreq, uint64(uint32(op)), api.EncodeF64(hz))
}

func (s *WazeroSynth) SetOperatorDetune(op int, cents float64) error {
	return s.call(expSetDetune, uint64(uint32(op)), api.EncodeF64(cents))
}

func (s *WazeroSynth) SetOperatorModulationIndex(op int, index float64) error {
	return s.call(expSetModIndex, uint64(uint32(op)), api.EncodeF64(index))
}

func (s *WazeroSynth) SetOperatorWaveform(op int, waveform uint8) error {
	return s.call(expSetWaveform, uint64(uint32(op)), uint64(waveform))
}

func (s *WazeroSynth) SetOperatorEnvelope(op int, attack, decay, sustain, release float64) error {
	return s.call(expSetEnvelope, uint64(uint32(op)),
		api.EncodeF64(attack), api.EncodeF64(decay), api.EncodeF64(sustain), api.EncodeF64(release))
}

func (s *WazeroSynth) SetOperatorFilter(op int, descriptor []byte) error {
	return s.callBlob(expSetFilter, op, descriptor)
}

func (s *WazeroSynth) RemoveOperatorFilter(op int, filterType []byte) error {
	return s.callBlob(expRemoveFilter, op, filterType)
}

func (s *WazeroSynth) SetEffect(slot int, descriptor []byte) error {
	return s.callBlob(expSetEffect, slot, descriptor)
}

func (s *WazeroSynth) RemoveEffect(slot int) error {
	return s.call(expRemoveEffect, uint64(uint32(slot)))
}

func (s *WazeroSynth) SetMasterVolume(gain float64) error {
	return s.call(expSetMasterVol, api.EncodeF64(gain))
}

// Render asks the module to fill its guest buffer and copies the
// samples into out. len(out) must not exceed the block size given at
// construction. No allocation on this path: the memory read is a view
// into guest memory.
func (s *WazeroSynth) Render(out []float32) error {
	frames := uint32(len(out))
	if frames > s.renderFrames {
		return errors.New(errors.ClassEngine, errors.StageRender).
			Op(expRender).Detail("block of %d frames exceeds buffer of %d", frames, s.renderFrames).Build()
	}
	if _, err := s.fns[expRender].Call(s.ctx, uint64(s.renderPtr), uint64(frames)); err != nil {
		return errors.Engine(errors.StageRender, expRender, err)
	}
	view, ok := s.module.Memory().Read(s.renderPtr, frames*4)
	if !ok {
		return errors.New(errors.ClassEngine, errors.StageRender).
			Op(expRender).Detail("render buffer outside guest memory").Build()
	}
	for i := range out {
		bits := uint32(view[i*4]) | uint32(view[i*4+1])<<8 | uint32(view[i*4+2])<<16 | uint32(view[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return nil
}

func (s *WazeroSynth) Close(ctx context.Context) error {
	return s.runtime.Close(ctx)
}
