// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package xmlserde

import "go.e43.eu/xmlserde/internal/errors"

// Errors returned by the library. Use errors.Is to test for them; the
// accompanying error types carry details.
const (
	ErrWriteFailure        = errors.ErrWriteFailure
	ErrMissingStartElement = errors.ErrMissingStartElement
	ErrUnknownDiscriminant = errors.ErrUnknownDiscriminant
	ErrUnmatchedVariant    = errors.ErrUnmatchedVariant
	ErrParse               = errors.ErrParse
	ErrEmptyText           = errors.ErrEmptyText
	ErrMissingElementName  = errors.ErrMissingElementName
	ErrLengthExceedsMax    = errors.ErrLengthExceedsMax
	ErrInvalidType         = errors.ErrInvalidType
	ErrNotPointer          = errors.ErrNotPointer
	ErrNilPointer          = errors.ErrNilPointer
)

type (
	// WriteError reports which write of an element failed
	WriteError = errors.WriteError
	WriteStage = errors.WriteStage

	ParseError        = errors.ParseError
	DiscriminantError = errors.DiscriminantError
	VariantError      = errors.VariantError
	LengthError       = errors.LengthError

	InvalidTypeError       = errors.InvalidTypeError
	InvalidTagForTypeError = errors.InvalidTagForTypeError

	// FieldError gives the path to the field at which an error occurred
	FieldError = errors.FieldError
)

const (
	StageStart      = errors.StageStart
	StageCharacters = errors.StageCharacters
	StageEnd        = errors.StageEnd
)
