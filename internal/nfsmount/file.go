package nfsmount

import (
	"io"
)

// sizedFile implements billy.File for a transcript file. Only the size is
// known, so the content reads as size zero bytes.
type sizedFile struct {
	name string
	size int64
	pos  int64
}

func (f *sizedFile) Name() string { return f.name }

func (f *sizedFile) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.pos)
	f.pos += int64(n)
	return n, err
}

func (f *sizedFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= f.size {
		return 0, io.EOF
	}
	n := len(p)
	if rem := f.size - off; int64(n) > rem {
		n = int(rem)
	}
	clear(p[:n])
	if off+int64(n) >= f.size {
		return n, io.EOF
	}
	return n, nil
}

func (f *sizedFile) Seek(offset int64, whence int) (int64, error) {
	f.pos = seek(f.pos, f.size, offset, whence)
	return f.pos, nil
}

func (f *sizedFile) Write([]byte) (int, error) { return 0, errReadOnly }
func (f *sizedFile) Truncate(int64) error      { return errReadOnly }
func (f *sizedFile) Lock() error               { return nil }
func (f *sizedFile) Unlock() error             { return nil }
func (f *sizedFile) Close() error              { return nil }

// bytesFile implements billy.File backed by a static byte slice.
// Used for the virtual _tree.json.
type bytesFile struct {
	name string
	data []byte
	pos  int64
}

func (f *bytesFile) Name() string { return f.name }

func (f *bytesFile) Read(p []byte) (int, error) {
	if f.pos >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.pos:])
	f.pos += int64(n)
	if f.pos >= int64(len(f.data)) {
		return n, io.EOF
	}
	return n, nil
}

func (f *bytesFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *bytesFile) Seek(offset int64, whence int) (int64, error) {
	f.pos = seek(f.pos, int64(len(f.data)), offset, whence)
	return f.pos, nil
}

func (f *bytesFile) Write([]byte) (int, error) { return 0, errReadOnly }
func (f *bytesFile) Truncate(int64) error      { return errReadOnly }
func (f *bytesFile) Lock() error               { return nil }
func (f *bytesFile) Unlock() error             { return nil }
func (f *bytesFile) Close() error              { return nil }

func seek(pos, size, offset int64, whence int) int64 {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = pos + offset
	case io.SeekEnd:
		newPos = size + offset
	}
	if newPos < 0 {
		newPos = 0
	}
	return newPos
}
