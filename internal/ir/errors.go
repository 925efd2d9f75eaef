package ir

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrorCode categorizes type errors.
type ErrorCode string

const (
	// ErrCodeTypeParse indicates a malformed type tree.
	ErrCodeTypeParse ErrorCode = "TYPE_PARSE"

	// ErrCodeShapeMismatch indicates a value that does not fit its declared type.
	ErrCodeShapeMismatch ErrorCode = "SHAPE_MISMATCH"

	// ErrCodeDepthExceeded indicates nesting past the configured maximum.
	ErrCodeDepthExceeded ErrorCode = "DEPTH_EXCEEDED"
)

// RootPath is the path of a top-level value in error messages.
const RootPath = "$"

// KeyPath appends an object key to a path.
func KeyPath(path, key string) string {
	return path + "." + key
}

// IndexPath appends an array index to a path.
func IndexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

// TypeParseError reports a malformed type tree: an unknown type tag, a missing
// required field for a kind, or a field of the wrong shape.
type TypeParseError struct {
	Path    string
	Message string
}

func (e *TypeParseError) Error() string {
	return fmt.Sprintf("%s: %s at %s", ErrCodeTypeParse, e.Message, e.Path)
}

// Code returns ErrCodeTypeParse.
func (e *TypeParseError) Code() ErrorCode { return ErrCodeTypeParse }

// ShapeMismatchError reports a value whose shape contradicts its declared type.
type ShapeMismatchError struct {
	Path string
	Want string // declared type, as canonical type JSON
	Got  string // JSON kind of the value
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: declared %s but value is %s at %s", ErrCodeShapeMismatch, e.Want, e.Got, e.Path)
}

// Code returns ErrCodeShapeMismatch.
func (e *ShapeMismatchError) Code() ErrorCode { return ErrCodeShapeMismatch }

// DepthExceededError reports nesting deeper than the configured maximum.
type DepthExceededError struct {
	Path string
	Max  int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("%s: nesting deeper than %d at %s", ErrCodeDepthExceeded, e.Max, e.Path)
}

// Code returns ErrCodeDepthExceeded.
func (e *DepthExceededError) Code() ErrorCode { return ErrCodeDepthExceeded }

// IsTypeParseError returns true if err is or wraps a TypeParseError.
func IsTypeParseError(err error) bool {
	var pe *TypeParseError
	return errors.As(err, &pe)
}

// IsShapeMismatch returns true if err is or wraps a ShapeMismatchError.
func IsShapeMismatch(err error) bool {
	var se *ShapeMismatchError
	return errors.As(err, &se)
}

// IsDepthExceeded returns true if err is or wraps a DepthExceededError.
func IsDepthExceeded(err error) bool {
	var de *DepthExceededError
	return errors.As(err, &de)
}

// CodeOf returns the ErrorCode carried by err, or "" when err is not a type error.
func CodeOf(err error) ErrorCode {
	var coded interface{ Code() ErrorCode }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
