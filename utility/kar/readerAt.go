// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"io"
	"sync"
)

// NewReaderAt creates a random access reader for the file name in a.
// The file is decompressed once, on first use.
func NewReaderAt(a *Archive, name string) (*ReaderAt, error) {
	e, err := a.Stat(name)
	if err != nil {
		return nil, err
	}
	return &ReaderAt{archive: a, entry: e}, nil
}

// ReaderAt provides concurrent io for a single file in a kar archive.
type ReaderAt struct {
	archive *Archive
	entry   IndexEntry

	once sync.Once
	data *bytes.Reader
	err  error
}

// Size is the decompressed size of the file.
func (r *ReaderAt) Size() int64 {
	return r.entry.Size
}

// ReadAt reads the file at that location
func (r *ReaderAt) ReadAt(p []byte, off int64) (n int, err error) {
	r.once.Do(func() {
		var data []byte
		data, r.err = r.archive.ReadAll(r.entry.Name)
		r.data = bytes.NewReader(data)
	})
	if r.err != nil {
		return 0, r.err
	}
	return r.data.ReadAt(p, off)
}

var _ io.ReaderAt = (*ReaderAt)(nil)
