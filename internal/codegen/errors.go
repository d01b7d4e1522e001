package codegen

import "fmt"

// UnimplementedError signals a declaration form the lowerer does not
// support yet. It is raised as a panic and recovered at the unit
// boundary in the driver, so one unsupported construct aborts only the
// unit that contains it.
type UnimplementedError struct {
	Feature string
}

func (e *UnimplementedError) Error() string {
	return "unimplemented: " + e.Feature
}

func unimplemented(format string, args ...any) {
	panic(&UnimplementedError{Feature: fmt.Sprintf(format, args...)})
}
