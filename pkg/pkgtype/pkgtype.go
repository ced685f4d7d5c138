// Package pkgtype sniffs binary package formats from their leading bytes.
package pkgtype

import (
	"bytes"
	"io"
	"os"
)

var (
	arMagic  = []byte("!<arch>\n")
	rpmMagic = []byte{0xed, 0xab, 0xee, 0xdb}
)

const debianBinaryMember = "debian-binary"

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:read], nil
}

// IsDeb reports whether path is an ar archive whose first member is debian-binary.
func IsDeb(path string) bool {
	head, err := readHead(path, len(arMagic)+len(debianBinaryMember))
	if err != nil {
		return false
	}
	if !bytes.HasPrefix(head, arMagic) {
		return false
	}
	return string(head[len(arMagic):]) == debianBinaryMember
}

// IsRPM reports whether path starts with the RPM lead magic.
func IsRPM(path string) bool {
	head, err := readHead(path, len(rpmMagic))
	if err != nil {
		return false
	}
	return bytes.Equal(head, rpmMagic)
}

// Matches reports whether a file with the given extension has the expected
// binary signature. Extensions other than deb and rpm always match.
func Matches(path, ext string) bool {
	switch ext {
	case "deb":
		return IsDeb(path)
	case "rpm":
		return IsRPM(path)
	default:
		return true
	}
}
