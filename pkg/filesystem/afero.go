package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Lstat returns file info without following a final symlink when the
// filesystem supports it, falling back to Stat otherwise.
func Lstat(fsys afero.Fs, name string) (fs.FileInfo, error) {
	if lst, ok := fsys.(afero.Lstater); ok {
		info, _, err := lst.LstatIfPossible(name)
		return info, err
	}
	return fsys.Stat(name)
}

// Symlink creates newname pointing at oldname.
// Filesystems without link support (MemMapFs) get a regular file whose
// content is the link target, which Readlink understands.
func Symlink(fsys afero.Fs, oldname, newname string) error {
	if linker, ok := fsys.(afero.Linker); ok {
		return linker.SymlinkIfPossible(oldname, newname)
	}
	return afero.WriteFile(fsys, newname, []byte(oldname), 0777)
}

// Readlink is the counterpart of Symlink.
func Readlink(fsys afero.Fs, name string) (string, error) {
	if reader, ok := fsys.(afero.LinkReader); ok {
		target, err := reader.ReadlinkIfPossible(name)
		if err == nil {
			return target, nil
		}
		if _, isOs := fsys.(*afero.OsFs); isOs {
			return "", err
		}
	}
	content, err := afero.ReadFile(fsys, name)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// IsSymlink reports whether name is a symbolic link. Always false on
// filesystems that cannot report link modes.
func IsSymlink(fsys afero.Fs, name string) bool {
	info, err := Lstat(fsys, name)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}

// Exists reports whether name exists, without following a final symlink.
func Exists(fsys afero.Fs, name string) bool {
	_, err := Lstat(fsys, name)
	return err == nil
}

// IsDir reports whether name exists and is a directory.
func IsDir(fsys afero.Fs, name string) bool {
	ok, err := afero.IsDir(fsys, name)
	return err == nil && ok
}

// IsEmptyDir reports whether dir is missing or has no entries.
func IsEmptyDir(fsys afero.Fs, dir string) (bool, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	return len(entries) == 0, nil
}

// RemoveChildren deletes every entry of dir, dot-files included, keeping dir.
func RemoveChildren(fsys afero.Fs, dir string) error {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := fsys.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
