package extract

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/klauspost/compress/zstd"
	"github.com/yeka/zip"
)

// zipMethodZstd is the zip compression method id assigned to zstd.
const zipMethodZstd = 93

func init() {
	zip.RegisterDecompressor(zipMethodZstd, func(r io.Reader) io.ReadCloser {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return errReadCloser{err: err}
		}

		return dec.IOReadCloser()
	})
}

type errReadCloser struct {
	err error
}

func (r errReadCloser) Read([]byte) (int, error) { return 0, r.err }

func (errReadCloser) Close() error { return nil }

var errPasswordRequired = errors.New("entry is encrypted and no password was supplied")

// ZipStrategy extracts zip archives, including ZipCrypto and WinZip AES
// encrypted entries.
type ZipStrategy struct{}

// NewZipStrategy creates the zip extraction method.
func NewZipStrategy() *ZipStrategy {
	return &ZipStrategy{}
}

// Name implements Strategy.
func (s *ZipStrategy) Name() string {
	return "zip"
}

// Extract implements Strategy. Format, compression, password and checksum
// errors are method failures; a missing or inaccessible archive or
// destination is fatal.
func (s *ZipStrategy) Extract(archivePath, password, dest string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return classify(s.Name(), fmt.Errorf("failed to open zip %s: %w", archivePath, err))
	}
	defer r.Close()

	if err := makeDir(dest); err != nil {
		return err
	}

	for _, f := range r.File {
		if err := s.extractFile(f, password, dest); err != nil {
			return classify(s.Name(), err)
		}
	}

	return nil
}

func (s *ZipStrategy) extractFile(f *zip.File, password, dest string) error {
	target, err := safeJoin(dest, f.Name)
	if err != nil {
		return err
	}

	info := f.FileInfo()

	switch {
	case info.IsDir():
		return makeDir(target)
	case info.Mode()&fs.ModeSymlink != 0:
		return nil
	}

	if f.IsEncrypted() {
		if password == "" {
			return fmt.Errorf("%s: %w", f.Name, errPasswordRequired)
		}

		f.SetPassword(password)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	return writeEntry(target, rc, info.Mode())
}
