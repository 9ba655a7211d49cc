package listing

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Default locations of the account databases.
const (
	PasswdFile = "/etc/passwd"
	GroupFile  = "/etc/group"
)

// Names resolves numeric user and group ids. Unknown ids resolve to
// their decimal form. The zero value knows no names.
type Names struct {
	users  map[uint32]string
	groups map[uint32]string
}

// LoadNames reads the passwd and group files. A file that cannot be
// opened contributes no names.
func LoadNames(passwdPath, groupPath string) (*Names, error) {
	users, err := readIDFile(passwdPath)
	if err != nil {
		return nil, err
	}
	groups, err := readIDFile(groupPath)
	if err != nil {
		return nil, err
	}
	return &Names{users: users, groups: groups}, nil
}

func readIDFile(path string) (map[uint32]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) || os.IsPermission(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	ids, err := ParseIDFile(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return ids, nil
}

// ParseIDFile reads colon separated records in the passwd or group
// layout, mapping the third field to the first. Comments, blank lines
// and records without a numeric id are skipped. A later record for an
// id replaces an earlier one.
func ParseIDFile(r io.Reader) (map[uint32]string, error) {
	ids := make(map[uint32]string)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 3 {
			continue
		}
		id, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			continue
		}
		ids[uint32(id)] = fields[0]
	}
	return ids, sc.Err()
}

// User returns the name of uid.
func (n *Names) User(uid uint32) string {
	if n != nil {
		if name, ok := n.users[uid]; ok {
			return name
		}
	}
	return strconv.FormatUint(uint64(uid), 10)
}

// Group returns the name of gid.
func (n *Names) Group(gid uint32) string {
	if n != nil {
		if name, ok := n.groups[gid]; ok {
			return name
		}
	}
	return strconv.FormatUint(uint64(gid), 10)
}
