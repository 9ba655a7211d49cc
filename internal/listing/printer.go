package listing

import (
	"bufio"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/paduszym/bomkit/pkg/bom/paths"
)

// Printer writes one line per manifest entry.
type Printer struct {
	// Format, when set, selects the columns and overrides the flags
	// below.
	Format []Item

	// PathsOnly prints nothing but the path.
	PathsOnly bool

	// NoModes drops mode and ownership from directories and links.
	NoModes bool

	// ModTime appends the modification time.
	ModTime bool

	Names    *Names
	Location *time.Location
}

// Print writes the entries sorted by path.
func (p *Printer) Print(w io.Writer, entries []paths.Entry) error {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b paths.Entry) int {
		return strings.Compare(a.Path, b.Path)
	})

	bw := bufio.NewWriter(w)
	for _, e := range sorted {
		if _, err := bw.WriteString(p.Line(e)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Line renders e without a trailing newline.
func (p *Printer) Line(e paths.Entry) string {
	switch {
	case len(p.Format) > 0:
		return p.formatLine(e)
	case p.PathsOnly:
		return e.Path
	default:
		return p.defaultLine(e)
	}
}

func (p *Printer) defaultLine(e paths.Entry) string {
	info := e.Info
	t := info.PathType()
	cols := []string{e.Path}
	if !p.NoModes || (t != paths.Directory && t != paths.Link) {
		cols = append(cols, strconv.FormatUint(uint64(info.Mode), 8), uid(info)+"/"+gid(info))
	}
	switch t {
	case paths.File:
		cols = append(cols, u32(info.Size), u32(info.Checksum))
	case paths.Link:
		cols = append(cols, u32(info.Size), u32(info.Checksum), info.LinkName)
	case paths.Device:
		cols = append(cols, u32(info.Size))
	}
	if p.ModTime {
		cols = append(cols, u32(info.ModTime))
	}
	return strings.Join(cols, "\t")
}

func (p *Printer) formatLine(e paths.Entry) string {
	info := e.Info
	t := info.PathType()
	fileOrLink := t == paths.File || t == paths.Link

	cols := make([]string, len(p.Format))
	for i, item := range p.Format {
		var s string
		switch item {
		case ItemFileName:
			s = e.Path
		case ItemFileNameQuoted:
			s = QuoteName(e.Path)
		case ItemChecksum:
			if fileOrLink {
				s = u32(info.Checksum)
			}
		case ItemGroupID:
			s = gid(info)
		case ItemGroupName:
			s = p.Names.Group(info.Group)
		case ItemPermissions:
			s = strconv.FormatUint(uint64(info.Mode), 8)
		case ItemPermissionsText:
			s = PermissionsText(info.Mode, t)
		case ItemFileSize:
			if fileOrLink {
				s = u32(info.Size)
			}
		case ItemFileSizeFormatted:
			if fileOrLink {
				s = HumanSize(info.Size)
			}
		case ItemModTime:
			if fileOrLink {
				s = u32(info.ModTime)
			}
		case ItemModTimeFormatted:
			if fileOrLink {
				s = FormatTime(info.ModTime, p.Location)
			}
		case ItemUserID:
			s = uid(info)
		case ItemUserName:
			s = p.Names.User(info.User)
		case ItemUserGroupID:
			s = uid(info) + "/" + gid(info)
		case ItemUserGroupName:
			s = p.Names.User(info.User) + "/" + p.Names.Group(info.Group)
		}
		cols[i] = s
	}
	return strings.Join(cols, "\t")
}

func u32(v uint32) string { return strconv.FormatUint(uint64(v), 10) }

func uid(info paths.PathInfo2) string { return u32(info.User) }

func gid(info paths.PathInfo2) string { return u32(info.Group) }
