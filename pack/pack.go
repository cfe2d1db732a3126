// Package pack maps file extensions to loaders and loads files from a vfs
// directory through them.
package pack

import (
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/tmmtools/tmm_browser/utils"
	"github.com/tmmtools/tmm_browser/vfs"
)

type FileLoader func(src utils.ResourceSource, r *io.SectionReader) (interface{}, error)

var (
	gHandlersLock sync.RWMutex
	gHandlers     = make(map[string]FileLoader, 0)
)

func SetHandler(format string, ldr FileLoader) {
	gHandlersLock.Lock()
	defer gHandlersLock.Unlock()
	gHandlers[strings.ToUpper(format)] = ldr
}

// Formats lists registered extensions, sorted.
func Formats() []string {
	gHandlersLock.RLock()
	defer gHandlersLock.RUnlock()
	list := make([]string, 0, len(gHandlers))
	for ext := range gHandlers {
		list = append(list, ext)
	}
	sort.Strings(list)
	return list
}

func CallHandler(s utils.ResourceSource, r *io.SectionReader) (interface{}, error) {
	ext := strings.ToUpper(filepath.Ext(s.Name()))

	gHandlersLock.RLock()
	h, found := gHandlers[ext]
	gHandlersLock.RUnlock()

	if !found {
		return nil, errors.Errorf("[pack] Cannot find handler for '%s' extension", ext)
	}
	return h(s, r)
}

type PackResSrc struct {
	pf vfs.File
	d  vfs.Directory
}

func (s *PackResSrc) Name() string {
	return s.pf.Name()
}

func (s *PackResSrc) Size() int64 {
	return s.pf.Size()
}

func (s *PackResSrc) Save(in *io.SectionReader) error {
	f, err := vfs.DirectoryGetFile(s.d, s.pf.Name())
	if err != nil {
		return errors.Wrapf(err, "[pack] Cannot get file '%s'", s.pf.Name())
	}
	return f.Copy(in)
}

// GetResSrc returns fileName of d as a resource that can be saved back.
func GetResSrc(d vfs.Directory, fileName string) (*PackResSrc, error) {
	f, err := vfs.DirectoryGetFile(d, fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Cannot get file '%s'", fileName)
	}
	return &PackResSrc{d: d, pf: f}, nil
}

func GetInstanceHandler(d vfs.Directory, fileName string) (interface{}, error) {
	f, err := vfs.DirectoryGetFile(d, fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Cannot get file '%s'", fileName)
	}

	r, err := vfs.OpenFileAndGetReader(f, true)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Cannot get instance of '%s'", fileName)
	}
	defer f.Close()

	inst, err := CallHandler(&PackResSrc{d: d, pf: f}, r)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Handler error")
	}

	return inst, nil
}
