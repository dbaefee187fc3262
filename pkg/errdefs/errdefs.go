// Package errdefs defines the decoding error taxonomy and the force-mode policy
// that decides which of those errors may be downgraded to warnings.
package errdefs

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrHeaderMismatch        = errors.New("file header does not match")
	ErrUnknownChunkType      = errors.New("unknown chunk type")
	ErrUnknownPropertyType   = errors.New("unknown property type")
	ErrMalformedVarInt       = errors.New("malformed variable byte integer")
	ErrTruncated             = errors.New("truncated buffer")
	ErrInvalidRetainHandling = errors.New("invalid retain handling")
)

// IsHeaderMismatch returns true if the magic signature did not match.
func IsHeaderMismatch(err error) bool {
	return errors.Is(err, ErrHeaderMismatch)
}

// IsUnknownChunkType returns true if a chunk tag was outside the known kinds.
func IsUnknownChunkType(err error) bool {
	return errors.Is(err, ErrUnknownChunkType)
}

// IsUnknownPropertyType returns true if a property code could not be decoded.
func IsUnknownPropertyType(err error) bool {
	return errors.Is(err, ErrUnknownPropertyType)
}

// IsMalformedVarInt returns true if a variable byte integer was invalid.
func IsMalformedVarInt(err error) bool {
	return errors.Is(err, ErrMalformedVarInt)
}

// IsTruncated returns true if a read would have gone past the end of the data.
func IsTruncated(err error) bool {
	return errors.Is(err, ErrTruncated)
}

// IsInvalidRetainHandling returns true if a subscription carried retain handling 3.
func IsInvalidRetainHandling(err error) bool {
	return errors.Is(err, ErrInvalidRetainHandling)
}

// IsRecoverable reports whether force mode may turn err into a warning.
// A malformed varint inside a property list is handled the same way as an
// unknown property type. Truncation is never recoverable.
func IsRecoverable(err error) bool {
	if err == nil || IsTruncated(err) {
		return false
	}
	return IsHeaderMismatch(err) ||
		IsUnknownChunkType(err) ||
		IsUnknownPropertyType(err) ||
		IsMalformedVarInt(err) ||
		IsInvalidRetainHandling(err)
}

// Policy decides what happens to structural errors while decoding.
type Policy struct {
	// Force downgrades recoverable errors to warnings.
	Force bool
	// Log receives the warnings. Nil means the logrus standard logger.
	Log logrus.FieldLogger
}

// Logger returns the policy logger, falling back to the standard logger.
func (p Policy) Logger() logrus.FieldLogger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}
	return p.Log
}

// Tolerate returns nil when err is recoverable and force mode is enabled,
// after logging it as a warning. Otherwise err is returned unchanged.
func (p Policy) Tolerate(err error, fields logrus.Fields) error {
	if err == nil {
		return nil
	}
	if !p.Force || !IsRecoverable(err) {
		return err
	}
	p.Logger().WithFields(fields).WithError(err).Warn("continuing in force mode")
	return nil
}
