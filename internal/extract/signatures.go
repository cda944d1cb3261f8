package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// Format is an archive container recognized by its magic number.
type Format string

// Recognized formats.
const (
	FormatUnknown Format = ""
	FormatZip     Format = "zip"
	Format7z      Format = "7z"
	FormatGzip    Format = "gzip"
	FormatZstd    Format = "zstd"
	FormatLZ4     Format = "lz4"
	FormatTar     Format = "tar"
)

// ErrUnrecognizedSignature is returned for files whose leading bytes match
// no known archive format.
var ErrUnrecognizedSignature = errors.New("unrecognized archive signature")

// FileSignature is a magic number at a fixed offset.
type FileSignature struct {
	Format      Format
	MagicNumber []byte
	Offset      int
}

// sniffSize covers the tar "ustar" magic at offset 257.
const sniffSize = 512

var fileSignatures = []FileSignature{
	{Format: Format7z, MagicNumber: []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}},
	{Format: FormatZip, MagicNumber: []byte{'P', 'K', 0x03, 0x04}},
	{Format: FormatZip, MagicNumber: []byte{'P', 'K', 0x05, 0x06}}, // empty archive
	{Format: FormatGzip, MagicNumber: []byte{0x1F, 0x8B}},
	{Format: FormatZstd, MagicNumber: []byte{0x28, 0xB5, 0x2F, 0xFD}},
	{Format: FormatLZ4, MagicNumber: []byte{0x04, 0x22, 0x4D, 0x18}},
	{Format: FormatTar, MagicNumber: []byte("ustar"), Offset: 257},
}

// DetectFormat identifies the archive format from its leading bytes.
func DetectFormat(header []byte) Format {
	for _, sig := range fileSignatures {
		end := sig.Offset + len(sig.MagicNumber)
		if len(header) < end {
			continue
		}

		if bytes.Equal(header[sig.Offset:end], sig.MagicNumber) {
			return sig.Format
		}
	}

	return FormatUnknown
}

// DetectFileFormat reads the head of path and identifies its format.
func DetectFileFormat(path string) (Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	header := make([]byte, sniffSize)

	n, err := io.ReadFull(file, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FormatUnknown, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return DetectFormat(header[:n]), nil
}
