package listing

import (
	"github.com/pkg/errors"

	"github.com/paduszym/bomkit/pkg/bom/paths"
)

// cpuTypes maps architecture names to the truncated Mach-O CPU types
// stored in PathInfo2.Architecture.
var cpuTypes = map[string]uint16{
	"i386":   0x07,
	"x86_64": 0x07,
	"arm":    0x0C,
	"armv7":  0x0C,
	"armv7s": 0x0C,
	"armv7k": 0x0C,
	"arm64":  0x0C,
	"arm64e": 0x0C,
	"ppc":    0x12,
	"ppc64":  0x12,
}

// CPUType returns the architecture code for name.
func CPUType(name string) (uint16, error) {
	t, ok := cpuTypes[name]
	if !ok {
		return 0, errors.Errorf("unknown architecture %q", name)
	}
	return t, nil
}

// Filter selects entries by type and architecture. With no include
// flag set every type is listed.
type Filter struct {
	BlockDevices     bool
	CharacterDevices bool
	Directories      bool
	Files            bool
	Links            bool

	// Arch, when non-zero, hides files built for another architecture.
	// Files with no recorded architecture always match.
	Arch uint16
}

func (f Filter) includeAll() bool {
	return !f.BlockDevices && !f.CharacterDevices && !f.Directories && !f.Files && !f.Links
}

// Match reports whether info passes the filter.
func (f Filter) Match(info paths.PathInfo2) bool {
	t := info.PathType()
	if !f.includeAll() {
		var ok bool
		switch t {
		case paths.File:
			ok = f.Files
		case paths.Directory:
			ok = f.Directories
		case paths.Link:
			ok = f.Links
		case paths.Device:
			if info.Mode&0x4000 != 0 {
				ok = f.BlockDevices
			} else {
				ok = f.CharacterDevices
			}
		}
		if !ok {
			return false
		}
	}
	if f.Arch != 0 && t == paths.File && info.Architecture != 0 && info.Architecture != f.Arch {
		return false
	}
	return true
}
