package qr

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultSearchPaths are the install locations probed for qrencode.
var DefaultSearchPaths = []string{
	"/usr/bin/qrencode",
	"/usr/local/bin/qrencode",
	"/opt/homebrew/bin/qrencode",
}

// Exec renders by running the qrencode binary.
type Exec struct {
	paths []string
}

// NewExec returns an Exec renderer probing paths, or DefaultSearchPaths
// when paths is empty.
func NewExec(paths []string) *Exec {
	if len(paths) == 0 {
		paths = DefaultSearchPaths
	}
	return &Exec{paths: paths}
}

// Locate returns the first executable found on the search paths.
func (e *Exec) Locate() (string, error) {
	for _, p := range e.paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() || info.Mode()&0o111 == 0 {
			continue
		}
		return p, nil
	}
	return "", fmt.Errorf("%w: tried %s", ErrLibraryNotFound, strings.Join(e.paths, ", "))
}

// Check fails with ErrLibraryNotFound when no search path holds qrencode.
func (e *Exec) Check() error {
	_, err := e.Locate()
	return err
}

// WritePNG runs qrencode with text on stdin and path as its output.
func (e *Exec) WritePNG(text, path string) error {
	bin, err := e.Locate()
	if err != nil {
		return err
	}
	cmd := exec.Command(bin,
		"-t", "PNG",
		"-l", "L",
		"-s", strconv.Itoa(PointSize),
		"-m", strconv.Itoa(Margin),
		"-o", path,
	)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("qrencode: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
