package engine

// The audio module's fixed function surface. Instantiation fails when
// any of these exports is missing, so a wrong or truncated payload is
// caught at boot rather than on first use.
const (
	expAlloc = "alloc"
	expFree  = "free"
	expInit  = "init"

	expNoteOn  = "note_on"
	expNoteOff = "note_off"

	expSetAlgorithm = "set_algorithm"

	expSetRatio      = "set_operator_ratio"
	expSetFixedFreq  = "set_operator_fixed_frequency"
	expSetDetune     = "set_operator_detune"
	expSetModIndex   = "set_operator_modulation_index"
	expSetWaveform   = "set_operator_waveform"
	expSetEnvelope   = "set_operator_envelope"
	expSetFilter     = "set_operator_filter"
	expRemoveFilter  = "remove_operator_filter"
	expSetEffect     = "set_effect"
	expRemoveEffect  = "remove_effect"
	expSetMasterVol  = "set_master_volume"

	expRender = "render"
)

var requiredExports = []string{
	expAlloc,
	expFree,
	expInit,
	expNoteOn,
	expNoteOff,
	expSetAlgorithm,
	expSetRatio,
	expSetFixedFreq,
	expSetDetune,
	expSetModIndex,
	expSetWaveform,
	expSetEnvelope,
	expSetFilter,
	expRemoveFilter,
	expSetEffect,
	expRemoveEffect,
	expSetMasterVol,
	expRender,
}
