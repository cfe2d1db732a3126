package tmm

import (
	"bytes"
	"io/ioutil"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// VerifyResult is the outcome of a decode/encode/decode cycle over one file.
type VerifyResult struct {
	Path   string
	Size   int
	Models int
	// Identical is true when re-encoding reproduced the input exactly.
	Identical bool
	// MismatchOffset is the first differing byte when Identical is false.
	MismatchOffset int
	Err            error
}

// VerifyBytes decodes raw, encodes the result and decodes that again.
// Padding bytes are written as zero, so a file with garbage in padding
// decodes fine but is reported as not identical.
func VerifyBytes(raw []byte, cm *charmap.Charmap) VerifyResult {
	res := VerifyResult{Size: len(raw), MismatchOffset: -1}

	f, err := DecodeWithEncoding(raw, cm)
	if err != nil {
		res.Err = errors.Wrap(err, "decode")
		return res
	}
	res.Models = len(f.ModelInfos)

	encoded, err := f.EncodeWithEncoding(cm)
	if err != nil {
		res.Err = errors.Wrap(err, "encode")
		return res
	}

	if _, err := DecodeWithEncoding(encoded, cm); err != nil {
		res.Err = errors.Wrap(err, "decode of re-encoded data")
		return res
	}

	res.Identical = bytes.Equal(raw, encoded)
	if !res.Identical {
		res.MismatchOffset = firstMismatch(raw, encoded)
	}
	return res
}

func VerifyFile(path string, cm *charmap.Charmap) VerifyResult {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return VerifyResult{Path: path, MismatchOffset: -1, Err: errors.Wrapf(err, "Failed to read %q", path)}
	}
	res := VerifyBytes(raw, cm)
	res.Path = path
	return res
}

// VerifyFiles checks paths with a pool of workers. Results keep the order
// of paths. progress, if not nil, is called after every file from the
// worker goroutines.
func VerifyFiles(paths []string, workers int, cm *charmap.Charmap, progress func(done, total int)) []VerifyResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]VerifyResult, len(paths))

	var mu sync.Mutex
	done := 0

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = VerifyFile(paths[idx], cm)
				if progress != nil {
					mu.Lock()
					done++
					progress(done, len(paths))
					mu.Unlock()
				}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func firstMismatch(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
