// Package listing renders manifest entries the way lsbom prints them.
package listing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/paduszym/bomkit/pkg/bom/paths"
)

// Item is one column of a custom print format.
type Item byte

const (
	ItemChecksum          Item = 'c'
	ItemFileName          Item = 'f'
	ItemFileNameQuoted    Item = 'F'
	ItemGroupID           Item = 'g'
	ItemGroupName         Item = 'G'
	ItemPermissions       Item = 'm'
	ItemPermissionsText   Item = 'M'
	ItemFileSize          Item = 's'
	ItemFileSizeFormatted Item = 'S'
	ItemModTime           Item = 't'
	ItemModTimeFormatted  Item = 'T'
	ItemUserID            Item = 'u'
	ItemUserName          Item = 'U'
	ItemUserGroupID       Item = '/'
	ItemUserGroupName     Item = '?'
)

var itemUsage = []struct {
	item  Item
	usage string
}{
	{ItemChecksum, "checksum"},
	{ItemFileName, "file name"},
	{ItemFileNameQuoted, "file name (quoted)"},
	{ItemGroupID, "group id"},
	{ItemGroupName, "group name"},
	{ItemPermissions, "permissions"},
	{ItemPermissionsText, "permissions (text)"},
	{ItemFileSize, "file size"},
	{ItemFileSizeFormatted, "file size (formatted)"},
	{ItemModTime, "modification time"},
	{ItemModTimeFormatted, "modification time (formatted)"},
	{ItemUserID, "user id"},
	{ItemUserName, "user name"},
	{ItemUserGroupID, "user/group id"},
	{ItemUserGroupName, "user/group name"},
}

// FormatUsage describes the print format characters, one per line.
func FormatUsage() string {
	var b strings.Builder
	for _, u := range itemUsage {
		fmt.Fprintf(&b, "  %c  %s\n", u.item, u.usage)
	}
	return b.String()
}

// ParseFormat parses a print format string. Every character selects
// one column; unknown and repeated characters are rejected.
func ParseFormat(s string) ([]Item, error) {
	if s == "" {
		return nil, errors.New("empty print format")
	}
	seen := make(map[rune]bool)
	items := make([]Item, 0, len(s))
	for _, c := range s {
		if seen[c] {
			return nil, errors.Errorf("duplicate format character %q", c)
		}
		seen[c] = true
		if !validItem(c) {
			return nil, errors.Errorf("invalid print format character %q", c)
		}
		items = append(items, Item(c))
	}
	return items, nil
}

func validItem(c rune) bool {
	for _, u := range itemUsage {
		if rune(u.item) == c {
			return true
		}
	}
	return false
}

// PermissionsText renders mode as ls does, for example "drwxr-xr-x".
func PermissionsText(mode uint16, t paths.PathType) string {
	var b [10]byte
	switch t {
	case paths.Directory:
		b[0] = 'd'
	case paths.Link:
		b[0] = 'l'
	case paths.Device:
		if mode&0x4000 != 0 {
			b[0] = 'b'
		} else {
			b[0] = 'c'
		}
	default:
		if mode&0xF000 == 0xC000 {
			b[0] = 's'
		} else {
			b[0] = '-'
		}
	}

	const rwx = "rwx"
	for i := 0; i < 9; i++ {
		if mode&(1<<(8-i)) != 0 {
			b[i+1] = rwx[i%3]
		} else {
			b[i+1] = '-'
		}
	}
	special := func(pos int, bit uint16, set, unset byte) {
		if mode&bit == 0 {
			return
		}
		if b[pos] == '-' {
			b[pos] = unset
		} else {
			b[pos] = set
		}
	}
	special(3, 0o4000, 's', 'S')
	special(6, 0o2000, 's', 'S')
	special(9, 0o1000, 't', 'T')
	return string(b[:])
}

// HumanSize renders size with a K, M or G suffix once it reaches 1024.
func HumanSize(size uint32) string {
	const unit = 1024
	switch {
	case size < unit:
		return strconv.FormatUint(uint64(size), 10)
	case size < unit*unit:
		return fmt.Sprintf("%.1fK", float64(size)/unit)
	case size < unit*unit*unit:
		return fmt.Sprintf("%.1fM", float64(size)/(unit*unit))
	default:
		return fmt.Sprintf("%.1fG", float64(size)/(unit*unit*unit))
	}
}

// TimeLayout matches strftime's "%a %b %e %H:%M:%S %Y".
const TimeLayout = "Mon Jan _2 15:04:05 2006"

// FormatTime renders a BOM modification time in loc.
func FormatTime(epoch uint32, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(int64(epoch), 0).In(loc).Format(TimeLayout)
}

// QuoteName wraps name in double quotes, escaping embedded quotes.
func QuoteName(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `\"`) + `"`
}
