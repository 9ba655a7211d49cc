// Package scan collects the entries mkbom writes into a manifest,
// either by walking a directory or by parsing an lsbom listing.
package scan

import (
	"context"
	"hash/crc32"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/paduszym/bomkit/pkg/bom/paths"
)

// Options controls a directory scan.
type Options struct {
	// Simplified zeroes ownership, modification times and checksums.
	Simplified bool

	// Workers bounds the number of files checksummed concurrently.
	// Zero or less means one.
	Workers int
}

// Dir walks root and returns its entries in walk order: the root
// itself as ".", then every descendant as "./rel/path", siblings sorted
// by name. File checksums are CRC32 (IEEE) of the contents.
func Dir(ctx context.Context, root string, opts Options) ([]paths.Entry, error) {
	var (
		entries []paths.Entry
		files   []int
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walk %s", path)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.Wrapf(err, "relative path of %s", path)
		}
		name := "."
		if rel != "." {
			name = "./" + filepath.ToSlash(rel)
		}

		info, err := stat(path)
		if err != nil {
			return err
		}
		if opts.Simplified {
			info.User, info.Group, info.ModTime = 0, 0, 0
		}
		if info.PathType() == paths.File && !opts.Simplified {
			files = append(files, len(entries))
		}
		entries = append(entries, paths.Entry{Path: name, Info: info})
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.Debugf("scanned %s: %d entries, %d files to checksum", root, len(entries), len(files))

	if err := checksumFiles(ctx, root, entries, files, opts.Workers); err != nil {
		return nil, err
	}
	return entries, nil
}

// stat describes path without following a final symlink.
func stat(path string) (paths.PathInfo2, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return paths.PathInfo2{}, errors.Wrapf(err, "lstat %s", path)
	}
	info := paths.PathInfo2{
		Type:    uint8(paths.File),
		Mode:    uint16(st.Mode),
		User:    st.Uid,
		Group:   st.Gid,
		ModTime: uint32(st.Mtim.Sec),
	}
	switch uint32(st.Mode) & unix.S_IFMT {
	case unix.S_IFDIR:
		info.Type = uint8(paths.Directory)
	case unix.S_IFLNK:
		target, err := os.Readlink(path)
		if err != nil {
			return paths.PathInfo2{}, errors.Wrapf(err, "readlink %s", path)
		}
		info.Type = uint8(paths.Link)
		info.LinkName = target
		info.Size = uint32(len(target))
	case unix.S_IFBLK, unix.S_IFCHR:
		// Device numbers live in the size field.
		info.Type = uint8(paths.Device)
		info.Size = uint32(st.Rdev)
	case unix.S_IFREG:
		info.Size = uint32(st.Size)
	}
	return info, nil
}

func checksumFiles(ctx context.Context, root string, entries []paths.Entry, files []int, workers int) error {
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, i := range files {
		path := filepath.Join(root, filepath.FromSlash(entries[i].Path))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sum, err := checksum(path)
			if err != nil {
				return err
			}
			// Each goroutine owns a distinct element.
			entries[i].Info.Checksum = sum
			return nil
		})
	}
	return g.Wait()
}

func checksum(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, f); err != nil {
		return 0, errors.Wrapf(err, "read %s", path)
	}
	return h.Sum32(), nil
}
