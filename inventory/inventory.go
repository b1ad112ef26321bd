// Package inventory maintains the configuration-management host registry.
// The file is parsed once into an ordered model, mutated by role lookup and
// serialized back deterministically; untouched lines survive byte-for-byte.
package inventory

import (
	"fmt"
	"os"
	"strings"

	"github.com/wormgate/wormgate/errors"
)

const hostField = "ansible_host="

// File is a parsed inventory file
type File struct {
	path  string
	lines []string
}

// Load reads and parses an inventory file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfiguration,
			fmt.Sprintf("failed to read inventory %s", path))
	}
	return Parse(path, data), nil
}

// Parse builds a File from raw inventory content
func Parse(path string, data []byte) *File {
	content := strings.TrimSuffix(string(data), "\n")
	return &File{
		path:  path,
		lines: strings.Split(content, "\n"),
	}
}

// sectionStart returns the index of the role's section header line
func (f *File) sectionStart(role string) (int, error) {
	header := "[" + role + "]"
	for i, line := range f.lines {
		if strings.TrimSpace(line) == header {
			return i, nil
		}
	}
	return 0, errors.New(errors.ErrConfiguration,
		fmt.Sprintf("inventory %s has no section %s", f.path, header))
}

// hostLine returns the index of the role's host entry line
func (f *File) hostLine(role string) (int, error) {
	start, err := f.sectionStart(role)
	if err != nil {
		return 0, err
	}

	for i := start + 1; i < len(f.lines); i++ {
		line := strings.TrimSpace(f.lines[i])
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			break
		}
		if !strings.Contains(line, hostField) {
			return 0, errors.New(errors.ErrConfiguration,
				fmt.Sprintf("inventory %s: host entry for %s has no %s field", f.path, role, hostField))
		}
		return i, nil
	}

	return 0, errors.New(errors.ErrConfiguration,
		fmt.Sprintf("inventory %s: section [%s] has no host entry", f.path, role))
}

// SetHost rewrites the role's ansible_host field in place
func (f *File) SetHost(role, address string) error {
	idx, err := f.hostLine(role)
	if err != nil {
		return err
	}

	fields := strings.Fields(f.lines[idx])
	indent := f.lines[idx][:len(f.lines[idx])-len(strings.TrimLeft(f.lines[idx], " \t"))]
	for i, field := range fields {
		if strings.HasPrefix(field, hostField) {
			fields[i] = hostField + address
		}
	}
	f.lines[idx] = indent + strings.Join(fields, " ")
	return nil
}

// HostFor returns the role's current ansible_host value
func (f *File) HostFor(role string) (string, error) {
	idx, err := f.hostLine(role)
	if err != nil {
		return "", err
	}

	for _, field := range strings.Fields(f.lines[idx]) {
		if strings.HasPrefix(field, hostField) {
			return strings.TrimPrefix(field, hostField), nil
		}
	}
	return "", errors.New(errors.ErrConfiguration,
		fmt.Sprintf("inventory %s: no %s field for %s", f.path, hostField, role))
}

// Bytes serializes the inventory
func (f *File) Bytes() []byte {
	return []byte(strings.Join(f.lines, "\n") + "\n")
}

// Save writes the inventory back to its original path
func (f *File) Save() error {
	if err := os.WriteFile(f.path, f.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrConfiguration,
			fmt.Sprintf("failed to write inventory %s", f.path))
	}
	return nil
}

// Update is the single-call form used by the workflow: load, set, save.
func Update(path, role, address string) error {
	f, err := Load(path)
	if err != nil {
		return err
	}
	if err := f.SetHost(role, address); err != nil {
		return err
	}
	return f.Save()
}
