// Package errors provides structured error types for the fmsynth
// session protocol.
//
// Errors are categorized by Class (the failure taxonomy: transport,
// protocol, validation, engine) and Stage (where in the session
// lifecycle the error occurred). The Error type carries an operation
// name, a detail message, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.ClassTransport, errors.StageFetch).
//		Op("fetch module payload").
//		Detail("status %d", resp.StatusCode).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Transport(errors.StageFetch, "fetch module payload", cause)
//	err := errors.Validation(errors.StageDecode, "matrix length matches no operator count")
//
// All errors implement the standard error interface and support
// errors.Is/As. Class determines recovery policy: transport errors
// reject the readiness promise and are retryable; protocol, validation
// and engine errors are recovered locally and never interrupt audio.
package errors
