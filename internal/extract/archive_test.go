package extract

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTar(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer

	tw := tar.NewWriter(&buf)

	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "nested/", Typeflag: tar.TypeDir, Mode: 0750}))

	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0640,
			Size:     int64(len(content)),
		}))

		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "link", Typeflag: tar.TypeSymlink, Linkname: "/etc/passwd"}))
	require.NoError(t, tw.Close())

	return buf.Bytes()
}

func compress(t *testing.T, format Format, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer

	var w io.WriteCloser

	switch format {
	case FormatGzip:
		w = gzip.NewWriter(&buf)
	case FormatZstd:
		zw, err := zstd.NewWriter(&buf)
		require.NoError(t, err)

		w = zw
	case FormatLZ4:
		w = lz4.NewWriter(&buf)
	default:
		return data
	}

	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func TestArchiveStrategy_Tarballs(t *testing.T) {
	files := map[string]string{
		"a.txt":        "hello",
		"nested/b.txt": "world",
	}

	testCases := []struct {
		name   string
		format Format
		file   string
	}{
		{name: "plain tar", format: FormatTar, file: "bundle.tar"},
		{name: "gzip", format: FormatGzip, file: "bundle.tgz"},
		{name: "zstd", format: FormatZstd, file: "bundle.tar.zst"},
		{name: "lz4", format: FormatLZ4, file: "bundle.tar.lz4"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			archive := writeArchive(t, tc.file, compress(t, tc.format, buildTar(t, files)))
			dest := OutputDir(archive)

			require.NoError(t, NewArchiveStrategy().Extract(archive, "", dest))

			assert.Equal(t, "hello", readFile(t, filepath.Join(dest, "a.txt")))
			assert.Equal(t, "world", readFile(t, filepath.Join(dest, "nested", "b.txt")))
			assert.NoFileExists(t, filepath.Join(dest, "link"))
		})
	}
}

// copyFixture places a testdata archive in a temporary directory so
// extraction output stays out of testdata.
func copyFixture(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	return writeArchive(t, name, data)
}

func TestArchiveStrategy_SevenZip(t *testing.T) {
	testCases := []struct {
		name     string
		fixture  string
		password string
	}{
		{name: "plain", fixture: "plain.7z"},
		{name: "plain with unused password", fixture: "plain.7z", password: "secret"},
		{name: "encrypted", fixture: "encrypted.7z", password: "password"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			archive := copyFixture(t, tc.fixture)
			dest := OutputDir(archive)

			require.NoError(t, NewArchiveStrategy().Extract(archive, tc.password, dest))

			assert.Equal(t, "bar\n", readFile(t, filepath.Join(dest, "bar")))
			assert.Equal(t, "foo\n", readFile(t, filepath.Join(dest, "foo")))
		})
	}
}

func TestArchiveStrategy_SevenZipWrongPassword(t *testing.T) {
	archive := copyFixture(t, "encrypted.7z")

	err := NewArchiveStrategy().Extract(archive, "notpassword", OutputDir(archive))

	var methodErr *MethodError
	require.ErrorAs(t, err, &methodErr)
	assert.Equal(t, "archive", methodErr.Method)
}

func TestCascade_SevenZipFallsBackToArchiveLibrary(t *testing.T) {
	archive := copyFixture(t, "encrypted.7z")

	var progress bytes.Buffer

	e := New(
		WithStrategies(NewZipStrategy(), NewArchiveStrategy(), NewExternalStrategy(filepath.Join(t.TempDir(), "no-7z"))),
		WithProgress(&progress),
	)

	dest, err := e.Extract(archive, "password")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(archive), "encrypted"), dest)
	assert.Equal(t, "bar\n", readFile(t, filepath.Join(dest, "bar")))
	assert.Equal(t, "foo\n", readFile(t, filepath.Join(dest, "foo")))
	assert.Equal(t, "Trying zip extraction...FAILED\nTrying archive extraction...SUCCESS!\n", progress.String())
}

func TestArchiveStrategy_UnrecognizedSignature(t *testing.T) {
	archive := writeArchive(t, "notes.rar", []byte("plain text pretending to be an archive"))

	err := NewArchiveStrategy().Extract(archive, "", OutputDir(archive))

	var methodErr *MethodError
	require.ErrorAs(t, err, &methodErr)
	assert.Equal(t, "archive", methodErr.Method)
	assert.ErrorIs(t, err, ErrUnrecognizedSignature)
}

func TestArchiveStrategy_ZipIsLeftToOtherMethods(t *testing.T) {
	archive := writeArchive(t, "plain.zip", buildZip(t, []zipEntry{{name: "a.txt", content: "a"}}, ""))

	err := NewArchiveStrategy().Extract(archive, "", OutputDir(archive))
	require.ErrorIs(t, err, ErrUnrecognizedSignature)
}

func TestArchiveStrategy_CorruptGzipIsMethodFailure(t *testing.T) {
	data := compress(t, FormatGzip, buildTar(t, map[string]string{"a.txt": strings.Repeat("x", 4096)}))
	archive := writeArchive(t, "broken.tgz", data[:len(data)/2])

	err := NewArchiveStrategy().Extract(archive, "", OutputDir(archive))

	var methodErr *MethodError
	require.ErrorAs(t, err, &methodErr)
}

func TestArchiveStrategy_Malformed7zIsMethodFailure(t *testing.T) {
	header := []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}
	archive := writeArchive(t, "broken.7z", append(header, bytes.Repeat([]byte{0}, 64)...))

	err := NewArchiveStrategy().Extract(archive, "", OutputDir(archive))

	var methodErr *MethodError
	require.ErrorAs(t, err, &methodErr)
}

func TestCascade_ArchiveOnlySolvableByAlternateLibrary(t *testing.T) {
	archive := writeArchive(t, "evidence.tgz", compress(t, FormatGzip, buildTar(t, map[string]string{"a.txt": "hello"})))

	var progress bytes.Buffer

	e := New(
		WithStrategies(NewZipStrategy(), NewArchiveStrategy(), NewExternalStrategy(filepath.Join(t.TempDir(), "no-7z"))),
		WithProgress(&progress),
	)

	dest, err := e.Extract(archive, "")
	require.NoError(t, err)

	assert.Equal(t, OutputDir(archive), dest)
	assert.Equal(t, "hello", readFile(t, filepath.Join(dest, "a.txt")))
	assert.Equal(t, "Trying zip extraction...FAILED\nTrying archive extraction...SUCCESS!\n", progress.String())
}

func TestCascade_AllMethodsFail(t *testing.T) {
	archive := writeArchive(t, "garbage.bin", []byte("garbage"))

	e := New(WithStrategies(NewZipStrategy(), NewArchiveStrategy(), NewExternalStrategy(filepath.Join(t.TempDir(), "no-7z"))))

	_, err := e.Extract(archive, "")
	require.ErrorIs(t, err, ErrExtractionExhausted)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))

	methods := make([]string, 0, len(exhausted.Attempts))
	for _, attempt := range exhausted.Attempts {
		methods = append(methods, attempt.Method)
	}

	assert.Equal(t, []string{"zip", "archive", "external"}, methods)
	assert.ErrorIs(t, exhausted.Attempts[2], ErrToolNotFound)
}

func TestDetectFormat(t *testing.T) {
	tarHeader := make([]byte, 512)
	copy(tarHeader[257:], "ustar")

	testCases := []struct {
		name     string
		header   []byte
		expected Format
	}{
		{name: "7z", header: []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C, 0, 4}, expected: Format7z},
		{name: "zip", header: []byte("PK\x03\x04rest"), expected: FormatZip},
		{name: "empty zip", header: []byte("PK\x05\x06"), expected: FormatZip},
		{name: "gzip", header: []byte{0x1F, 0x8B, 0x08}, expected: FormatGzip},
		{name: "zstd", header: []byte{0x28, 0xB5, 0x2F, 0xFD}, expected: FormatZstd},
		{name: "lz4", header: []byte{0x04, 0x22, 0x4D, 0x18}, expected: FormatLZ4},
		{name: "tar", header: tarHeader, expected: FormatTar},
		{name: "short", header: []byte{0x1F}, expected: FormatUnknown},
		{name: "text", header: []byte("hello world"), expected: FormatUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DetectFormat(tc.header))
		})
	}
}
