// Package filesystem provides the afero filesystems mum runs on and the
// helpers it needs beyond the afero.Fs interface: lstat, symlinks and
// directory emptiness checks that degrade gracefully on in-memory filesystems.
package filesystem
