// Package errors provides examples of structured error handling in fexport.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

// Example demonstrates basic error creation and details.
func Example() {
	err := errors.New(errors.ErrorTypeValueOverflow, "value longer than declared length")

	err = err.WithDetail("column", "CUST_NAME").
		WithDetail("value", "a very long customer name").
		WithDetail("length", 10)

	fmt.Println(err.Error())

	// Output:
	// value_overflow: value longer than declared length
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeRowOverflow, "truncated frame body").
		WithDetail("row", 42)

	if errors.IsType(err, errors.ErrorTypeRowOverflow) {
		fmt.Println("frame is corrupt")
	}
	fmt.Println(errors.IsFatal(err))

	// Output:
	// frame is corrupt
	// true
}

// ExampleIsFatal shows which errors only condemn a single row.
func ExampleIsFatal() {
	rowErr := errors.New(errors.ErrorTypeMalformedValue, "not a date")
	runErr := errors.New(errors.ErrorTypeSchemaMismatch, "unknown column")

	fmt.Printf("malformed value fatal: %v\n", errors.IsFatal(rowErr))
	fmt.Printf("schema mismatch fatal: %v\n", errors.IsFatal(runErr))

	// Output:
	// malformed value fatal: false
	// schema mismatch fatal: true
}
