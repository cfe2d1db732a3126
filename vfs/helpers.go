package vfs

import (
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

func OpenFileAndGetReader(f File, readonly bool) (*io.SectionReader, error) {
	if err := f.Open(readonly); err != nil {
		return nil, errors.Wrapf(err, "Cannot open file '%s'", f.Name())
	}
	r, err := f.Reader()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "Cannot get file '%s' reader", f.Name())
	}
	return r, nil
}

func DirectoryGetFile(d Directory, name string) (File, error) {
	f, err := d.GetElement(name)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot open file '%s'", name)
	}
	if f.IsDirectory() {
		return nil, errors.Errorf("File '%s' is directory, not a file!", name)
	}
	return f.(File), nil
}

// DirectoryFilesByExt lists the plain files of d whose extension matches
// ext case-insensitively, sorted by name.
func DirectoryFilesByExt(d Directory, ext string) ([]string, error) {
	names, err := d.List()
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(names))
	for _, name := range names {
		if !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		e, err := d.GetElement(name)
		if err != nil {
			return nil, err
		}
		if !e.IsDirectory() {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result, nil
}
