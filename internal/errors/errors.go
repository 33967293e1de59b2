// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package errors

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type xerror string

func (e xerror) Error() string {
	return string(e)
}

const (
	// A writer failed to accept an event. Returned errors are always of type
	// WriteError, which identifies the stage
	ErrWriteFailure = xerror("xmlserde: Write failed")

	// Decode expected a start element and found something else (or the end of
	// the stream)
	ErrMissingStartElement = xerror("xmlserde: Start element not found")

	// A unit variant ordinal did not match any declared variant, or an enum
	// value holds a discriminant with no variant
	ErrUnknownDiscriminant = xerror("xmlserde: Unknown discriminant")

	// No variant label or shape matched the observed event
	ErrUnmatchedVariant = xerror("xmlserde: No variant matches")

	// The textual form of a leaf value could not be parsed
	ErrParse = xerror("xmlserde: Parse failed")

	// An element had no character content and strict text handling is enabled
	ErrEmptyText = xerror("xmlserde: Empty text")

	// A value had no element name to be written with (e.g. an anonymous
	// struct encoded at top level)
	ErrMissingElementName = xerror("xmlserde: No element name for value")

	// Fixed size array received more items than it can hold
	ErrLengthExceedsMax = xerror("xmlserde: Too many items for fixed length array")

	// A type (or a tag applied to it) cannot be mapped to XML. Returned errors
	// are of type InvalidTypeError or InvalidTagForTypeError
	ErrInvalidType = xerror("xmlserde: Unsupported type")

	// ReadObject expected pointer parameter
	ErrNotPointer = xerror("xmlserde: Expected pointer parameter")

	// Pointer was unexpectedly nil
	ErrNilPointer = xerror("xmlserde: Unexpected nil pointer")
)

// WriteStage identifies which write of an element failed
type WriteStage uint8

const (
	StageStart WriteStage = iota
	StageCharacters
	StageEnd
)

type WriteError struct {
	Stage WriteStage
	Err   error
}

func (err WriteError) Is(target error) bool {
	return target == ErrWriteFailure
}

func (err WriteError) Unwrap() error {
	return err.Err
}

func (err WriteError) Error() string {
	var what string
	switch err.Stage {
	case StageStart:
		what = "Start element write failed"
	case StageCharacters:
		what = "Element value write failed"
	default:
		what = "End element write failed"
	}
	return fmt.Sprintf("xmlserde: %s: %v", what, err.Err)
}

// ParseError reports the text which failed to parse into a leaf value
type ParseError struct {
	Text string
	Err  error
}

func (err ParseError) Is(target error) bool {
	return target == ErrParse
}

func (err ParseError) Unwrap() error {
	return err.Err
}

func (err ParseError) Error() string {
	return fmt.Sprintf("xmlserde: Parse of %q failed: %v", err.Text, err.Err)
}

type DiscriminantError struct {
	Value string
}

func (err DiscriminantError) Is(target error) bool {
	return target == ErrUnknownDiscriminant
}

func (err DiscriminantError) Error() string {
	return fmt.Sprintf("%s (%s)", ErrUnknownDiscriminant, err.Value)
}

type VariantError struct {
	Name string
}

func (err VariantError) Is(target error) bool {
	return target == ErrUnmatchedVariant
}

func (err VariantError) Error() string {
	if err.Name == "" {
		return fmt.Sprintf("%s (empty element)", ErrUnmatchedVariant)
	}
	return fmt.Sprintf("%s (<%s>)", ErrUnmatchedVariant, err.Name)
}

type InvalidTypeError struct {
	T reflect.Type
}

func (e InvalidTypeError) Is(target error) bool {
	return target == ErrInvalidType
}

func (e InvalidTypeError) Error() string {
	return fmt.Sprintf("xmlserde: Type '%s' unsupported", e.T)
}

type InvalidTagForTypeError struct {
	T   reflect.Type
	Tag string
}

func (e InvalidTagForTypeError) Is(target error) bool {
	return target == ErrInvalidType
}

func (e InvalidTagForTypeError) Error() string {
	return fmt.Sprintf("xmlserde: Tag '%s' unsupported for type '%s'", e.Tag, e.T)
}

type LengthError struct {
	Actual, Max uint64
}

func (err LengthError) Is(target error) bool {
	return target == ErrLengthExceedsMax && err.Actual > err.Max
}

func (err LengthError) Error() string {
	return fmt.Sprintf("%s (%s > %s)", ErrLengthExceedsMax,
		strconv.FormatUint(err.Actual, 10), strconv.FormatUint(err.Max, 10))
}

type FieldError struct {
	Underlying error
	Path       string
}

func (err FieldError) Unwrap() error {
	return err.Underlying
}

func (err FieldError) Error() string {
	uerr := strings.TrimPrefix(err.Underlying.Error(), "xmlserde: ")
	return fmt.Sprintf("xmlserde: %s (at %s)", uerr, err.Path)
}

func WithFieldError(err error, parts ...string) error {
	if err == nil {
		return nil
	}

	var combined string
	if parts[0] == "" {
		parts[0] = "<anonymous>"
	}

	switch len(parts) {
	case 1:
		combined = parts[0]
	case 3:
		combined = fmt.Sprintf("%s.%s(%s)", parts[0], parts[1], parts[2])
	default:
		combined = strings.Join(parts, ".")
	}

	switch err := err.(type) {
	case FieldError:
		err.Path = fmt.Sprintf("%s %s", combined, err.Path)
		return err
	default:
		return FieldError{err, combined}
	}
}
