package extract

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ArchiveStrategy extracts the formats the zip reader cannot: 7-Zip
// archives and tarballs, plain or compressed with gzip, zstd or lz4.
// The reader is chosen from the file signature.
type ArchiveStrategy struct{}

// NewArchiveStrategy creates the alternate-library extraction method.
func NewArchiveStrategy() *ArchiveStrategy {
	return &ArchiveStrategy{}
}

// Name implements Strategy.
func (s *ArchiveStrategy) Name() string {
	return "archive"
}

// Extract implements Strategy. An unrecognized or malformed archive is a
// method failure.
func (s *ArchiveStrategy) Extract(archivePath, password, dest string) error {
	format, err := DetectFileFormat(archivePath)
	if err != nil {
		return classify(s.Name(), err)
	}

	switch format {
	case Format7z:
		return s.extract7z(archivePath, password, dest)
	case FormatGzip, FormatZstd, FormatLZ4, FormatTar:
		return s.extractTar(archivePath, format, dest)
	case FormatUnknown:
		return methodFailed(s.Name(), fmt.Errorf("%w: %s", ErrUnrecognizedSignature, archivePath))
	default:
		return methodFailed(s.Name(), fmt.Errorf("%w: %s archives are not handled here", ErrUnrecognizedSignature, format))
	}
}

func (s *ArchiveStrategy) extract7z(archivePath, password, dest string) error {
	r, err := sevenzip.OpenReaderWithPassword(archivePath, password)
	if err != nil {
		return classify(s.Name(), fmt.Errorf("failed to open 7z %s: %w", archivePath, err))
	}
	defer r.Close()

	if err := makeDir(dest); err != nil {
		return err
	}

	for _, f := range r.File {
		if err := s.extract7zFile(f, dest); err != nil {
			return classify(s.Name(), err)
		}
	}

	return nil
}

func (s *ArchiveStrategy) extract7zFile(f *sevenzip.File, dest string) error {
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

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	return writeEntry(target, rc, info.Mode())
}

func (s *ArchiveStrategy) extractTar(archivePath string, format Format, dest string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", archivePath, err)
	}
	defer file.Close()

	stream, closeStream, err := decompressor(file, format)
	if err != nil {
		return methodFailed(s.Name(), err)
	}
	defer closeStream()

	if err := makeDir(dest); err != nil {
		return err
	}

	tr := tar.NewReader(stream)

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return methodFailed(s.Name(), fmt.Errorf("failed to read %s tarball %s: %w", format, archivePath, err))
		}

		if err := s.extractTarEntry(tr, hdr, dest); err != nil {
			return classify(s.Name(), err)
		}
	}
}

func (s *ArchiveStrategy) extractTarEntry(tr *tar.Reader, hdr *tar.Header, dest string) error {
	target, err := safeJoin(dest, hdr.Name)
	if err != nil {
		return err
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		return makeDir(target)
	case tar.TypeReg:
		return writeEntry(target, tr, hdr.FileInfo().Mode())
	default:
		// links, devices and fifos are not materialized
		return nil
	}
}

// decompressor wraps r for the given tarball compression.
func decompressor(r io.Reader, format Format) (io.Reader, func(), error) {
	switch format {
	case FormatGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}

		return gz, func() { _ = gz.Close() }, nil
	case FormatZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}

		return zr, zr.Close, nil
	case FormatLZ4:
		return lz4.NewReader(r), func() {}, nil
	default:
		return r, func() {}, nil
	}
}
