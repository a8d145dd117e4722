package parse

import (
	"io"
	"os"
)

// readlink and osStat are thin indirections over the standard
// library so the handful of parseFns that need a direct filesystem
// call read as parse-package operations rather than bare os calls.
func readlink(path string) (string, error)   { return os.Readlink(path) }
func osStat(path string) (os.FileInfo, error) { return os.Stat(path) }

// dirIsEmpty reports whether path (known to be a directory) has no
// entries, for -empty.
func dirIsEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}
