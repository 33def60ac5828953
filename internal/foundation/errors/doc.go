// Package errors provides the classified error primitives used across blogbuilder.
//
// A ClassifiedError carries a category (what kind of fault), a severity (how
// far it propagates) and a small context map. The CLI adapter turns the
// category into a process exit code.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "write page").
//		WithContext("path", out).
//		Build()
package errors
