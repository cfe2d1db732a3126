package utils

import "io"

// ResourceSource is a loaded file that can be replaced with new content.
type ResourceSource interface {
	Name() string
	Size() int64
	Save(in *io.SectionReader) error
}
