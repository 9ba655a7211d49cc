// Package bomfile reads and writes BOM archives on disk.
//
// Archives may travel gzip or zstd compressed. Compression wraps the
// whole file and is removed before the archive is parsed; the BOM
// format itself is never compressed.
package bomfile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/paduszym/bomkit/internal/config"
	"github.com/paduszym/bomkit/pkg/bom"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect reports the transport compression of data by its magic.
func Detect(data []byte) config.Compression {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return config.CompressionZstd
	case bytes.HasPrefix(data, gzipMagic):
		return config.CompressionGzip
	default:
		return config.CompressionNone
	}
}

// ForName returns the compression implied by a file name extension,
// or fallback when the name has no recognised extension.
func ForName(name string, fallback config.Compression) config.Compression {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zst", ".zstd":
		return config.CompressionZstd
	case ".gz":
		return config.CompressionGzip
	default:
		return fallback
	}
}

// Decompress removes transport compression, if any, from data.
func Decompress(data []byte) ([]byte, error) {
	switch Detect(data) {
	case config.CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errors.Wrap(err, "create zstd decoder")
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, errors.Wrap(err, "zstd decompress")
		}
		return out, nil
	case config.CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, errors.Wrap(err, "gzip decompress")
		}
		return out, nil
	default:
		return data, nil
	}
}

// Compress wraps data with the given transport compression.
func Compress(data []byte, c config.Compression) ([]byte, error) {
	switch c {
	case config.CompressionNone, "":
		return data, nil
	case config.CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, errors.Wrap(err, "create zstd encoder")
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	case config.CompressionGzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, errors.Wrap(err, "gzip compress")
		}
		if err := zw.Close(); err != nil {
			return nil, errors.Wrap(err, "gzip compress")
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.Errorf("unknown compression %q", c)
	}
}

// Read loads and parses the archive at path.
func Read(path string) (*bom.Archive, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read archive")
	}
	data, err := Decompress(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "decompress %s", path)
	}
	logrus.Debugf("loaded %s: %d bytes (%d on disk)", path, len(data), len(raw))

	a, err := bom.Load(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return a, nil
}

// Write serializes w to path. The file is written to a temporary name
// in the same directory and renamed into place, so readers never see
// a partial archive.
func Write(path string, w *bom.Writer, c config.Compression) error {
	data, err := Compress(w.Serialize(), ForName(path, c))
	if err != nil {
		return errors.Wrapf(err, "compress %s", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "create temporary file")
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", tmpPath)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "chmod %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrapf(err, "rename to %s", path)
	}
	success = true

	logrus.Debugf("wrote %s: %d blocks, %d bytes", path, w.BlockCount(), len(data))
	return nil
}
