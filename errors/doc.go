// Package errors provides structured error types for the pod-runtime module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the offending buffer offset, the expected and observed
// pod type names, an element path and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseParse, errors.KindTypeMismatch).
//		Path("object", "prop[3]").
//		At(128).
//		Want("Int").
//		Got("String").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Overflow(errors.PhaseBuild, offset, needed, capacity)
//	err := errors.TypeMismatch(errors.PhaseParse, "Int", "String")
//
// Every Kind has a phase-less sentinel (ErrOverflow, ErrTypeMismatch, ...) that
// matches errors of that Kind from any phase:
//
//	if errors.Is(err, errors.ErrOverflow) {
//		// grow the buffer and retry
//	}
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
