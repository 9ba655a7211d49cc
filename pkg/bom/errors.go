package bom

import (
	"errors"
	"fmt"
)

var (
	// ErrFileTooSmall is returned when the buffer cannot hold the archive header.
	ErrFileTooSmall = errors.New("bom: file too small")

	// ErrInvalidMagic is returned when the header does not start with "BOMStore".
	ErrInvalidMagic = errors.New("bom: invalid magic (expected 'BOMStore')")

	// ErrInvalidVersion is matched by every *VersionError.
	ErrInvalidVersion = errors.New("bom: invalid version")

	// ErrIndexOutOfBounds is returned when the index table lies outside the buffer.
	ErrIndexOutOfBounds = errors.New("bom: index offset out of bounds")

	// ErrVariablesOutOfBounds is returned when the variables table lies outside the buffer.
	ErrVariablesOutOfBounds = errors.New("bom: variables offset out of bounds")

	// ErrIndexOutOfRange is matched by every *IndexError.
	ErrIndexOutOfRange = errors.New("bom: index out of range")

	// ErrTreeNotFound is matched by every *TreeNotFoundError.
	ErrTreeNotFound = errors.New("bom: tree not found")

	// ErrInvalidTreeMagic is returned when a tree root block does not start with "tree".
	ErrInvalidTreeMagic = errors.New("bom: invalid tree magic")

	// ErrInvalidTreeVersion is returned when a tree root block has a version other than 1.
	ErrInvalidTreeVersion = errors.New("bom: invalid tree version")

	// ErrDataOutOfBounds is returned when a node or the data it references
	// extends beyond its block or the buffer.
	ErrDataOutOfBounds = errors.New("bom: data extends beyond buffer")

	// ErrCorrupt is returned when a structure references itself, such as a
	// leaf chain that loops back on an already visited node.
	ErrCorrupt = errors.New("bom: corrupt structure")
)

// VersionError reports an unsupported archive version.
type VersionError struct {
	Version uint32
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("bom: invalid version (expected 1, got %d)", e.Version)
}

func (e *VersionError) Is(target error) bool { return target == ErrInvalidVersion }

// IndexError reports a block index that is not present in the index table.
type IndexError struct {
	Index uint32
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("bom: index %d out of range", e.Index)
}

func (e *IndexError) Is(target error) bool { return target == ErrIndexOutOfRange }

// TreeNotFoundError reports a tree lookup by a variable name that does not exist.
type TreeNotFoundError struct {
	Name string
}

func (e *TreeNotFoundError) Error() string {
	return fmt.Sprintf("bom: tree not found for variable '%s'", e.Name)
}

func (e *TreeNotFoundError) Is(target error) bool { return target == ErrTreeNotFound }
