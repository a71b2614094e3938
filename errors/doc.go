// Package errors provides structured error types for the retarget layer.
//
// Errors are categorized by Phase (which runtime call failed) and Kind
// (why it failed). The Kind carries the error taxonomy the ABI boundary
// maps onto sentinels: unsupported capabilities, invalid handles,
// wrong-direction access and delegate failures.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRead, errors.KindDelegate).
//		Target("handle 3").
//		Cause(ioErr).
//		Detail("filesystem read failed").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidHandle(errors.PhaseSeek, 1)
//	err := errors.NoFilesystem(errors.PhaseOpen)
//
// Kind-only sentinels (ErrUnsupported, ErrInvalidHandle, ...) match any
// phase through errors.Is.
package errors
