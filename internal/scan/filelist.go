package scan

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/paduszym/bomkit/pkg/bom/paths"
)

const (
	modeTypeMask = 0o170000
	modeDir      = 0o040000
	modeLink     = 0o120000
	modeChar     = 0o020000
	modeBlock    = 0o060000
)

// ReadFilelist parses the listing at name, or in when name is "-".
func ReadFilelist(name string, in io.Reader) ([]paths.Entry, error) {
	if name == "-" {
		return ParseFilelist(in)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open file list")
	}
	defer f.Close()
	entries, err := ParseFilelist(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", name)
	}
	return entries, nil
}

// ParseFilelist reads entries in the default lsbom line format:
//
//	path	mode	uid/gid	[size	checksum	[link]]
//
// Fields are tab separated and the mode is octal. The entry type comes
// from the file type bits of the mode; a mode without them is a file.
// Devices carry their device number in place of the size. Blank lines
// are skipped.
func ParseFilelist(r io.Reader) ([]paths.Entry, error) {
	var entries []paths.Entry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		e, err := parseLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", n)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read file list")
	}
	return entries, nil
}

func parseLine(line string) (paths.Entry, error) {
	fields := strings.Split(line, "\t")
	e := paths.Entry{Path: fields[0]}
	info := &e.Info
	info.Type = uint8(paths.File)

	if len(fields) > 1 {
		mode, err := strconv.ParseUint(fields[1], 8, 16)
		if err != nil {
			return e, errors.Wrapf(err, "mode %q", fields[1])
		}
		info.Mode = uint16(mode)
	}
	if len(fields) > 2 {
		user, group, _ := strings.Cut(fields[2], "/")
		u, err := strconv.ParseUint(user, 10, 32)
		if err != nil {
			return e, errors.Wrapf(err, "user %q", user)
		}
		g, err := strconv.ParseUint(group, 10, 32)
		if err != nil {
			return e, errors.Wrapf(err, "group %q", group)
		}
		info.User, info.Group = uint32(u), uint32(g)
	}

	switch info.Mode & modeTypeMask {
	case modeDir:
		info.Type = uint8(paths.Directory)
	case modeLink:
		info.Type = uint8(paths.Link)
	case modeChar, modeBlock:
		info.Type = uint8(paths.Device)
	}

	if len(fields) > 3 {
		size, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil {
			return e, errors.Wrapf(err, "size %q", fields[3])
		}
		info.Size = uint32(size)
	}
	if len(fields) > 4 && info.PathType() != paths.Device {
		sum, err := strconv.ParseUint(fields[4], 10, 32)
		if err != nil {
			return e, errors.Wrapf(err, "checksum %q", fields[4])
		}
		info.Checksum = uint32(sum)
	}
	if len(fields) > 5 && info.PathType() == paths.Link {
		info.LinkName = fields[5]
	}
	return e, nil
}
