package vfs

import (
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

func OpenFileAndGetReader(f File) (*io.SectionReader, error) {
	if err := f.Open(); err != nil {
		return nil, errors.Wrapf(err, "Cannot open file '%s'", f.Name())
	}
	r, err := f.Reader()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "Cannot get file '%s' reader", f.Name())
	}
	return r, nil
}

// ReadFile reads a whole file and closes it.
func ReadFile(f File) ([]byte, error) {
	r, err := OpenFileAndGetReader(f)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(r)
}

// GetElement walks a slash separated path from d.
func GetElement(d Directory, name string) (Element, error) {
	name = strings.Trim(path.Clean("/"+strings.ReplaceAll(name, "\\", "/")), "/")
	if name == "" {
		return d, nil
	}

	var e Element = d
	for _, part := range strings.Split(name, "/") {
		dir, ok := e.(Directory)
		if !ok || !e.IsDirectory() {
			return nil, errors.Errorf("'%s' is not a directory", e.Name())
		}
		var err error
		if e, err = dir.GetElement(part); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func DirectoryGetFile(d Directory, name string) (File, error) {
	e, err := GetElement(d, name)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot open file '%s'", name)
	}
	if e.IsDirectory() {
		return nil, errors.Errorf("File '%s' is directory, not a file!", name)
	}
	return e.(File), nil
}

func Exists(d Directory, name string) bool {
	e, err := GetElement(d, name)
	return err == nil && !e.IsDirectory()
}

func DirectoryReadFile(d Directory, name string) ([]byte, error) {
	f, err := DirectoryGetFile(d, name)
	if err != nil {
		return nil, err
	}
	return ReadFile(f)
}

// Walk lists files under d whose extension matches ext (case insensitive),
// as sorted slash separated paths.
func Walk(d Directory, ext string) ([]string, error) {
	var result []string
	var walk func(d Directory, prefix string) error
	walk = func(d Directory, prefix string) error {
		names, err := d.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			e, err := d.GetElement(name)
			if err != nil {
				if os.IsNotExist(errors.Cause(err)) {
					continue
				}
				return err
			}
			if sub, ok := e.(Directory); ok && e.IsDirectory() {
				if err := walk(sub, prefix+name+"/"); err != nil {
					return err
				}
			} else if strings.EqualFold(path.Ext(name), ext) {
				result = append(result, prefix+name)
			}
		}
		return nil
	}
	if err := walk(d, ""); err != nil {
		return nil, err
	}
	sort.Strings(result)
	return result, nil
}
