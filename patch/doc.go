// Package patch defines the synthesizer configuration model: the
// routing matrix, per-operator parameters, global effect slots, and the
// Patch aggregate that is the unit of serialization, persistence and
// cross-context synchronization.
//
// The operator count is fixed at OperatorCount for a live session; the
// codecs accept other counts so records produced under a different
// build still decode.
package patch
