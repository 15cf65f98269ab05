// Package ocr turns manifest photos into text by running an external
// recognition engine.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Default engine invocation: tesseract reading the image from stdin and
// writing Korean and English text to stdout.
var (
	DefaultCommand = "tesseract"
	DefaultArgs    = []string{"stdin", "stdout", "-l", "kor+eng"}
)

// ErrNotConfigured is returned when no recognition command is set.
var ErrNotConfigured = errors.New("ocr command not configured")

// Recognizer extracts text from an encoded image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Command runs Path with Args, feeding the image on stdin and returning
// stdout as the recognized text.
type Command struct {
	Path string
	Args []string
}

// NewCommand returns a Command, falling back to the tesseract defaults
// when path is empty.
func NewCommand(path string, args []string) *Command {
	if path == "" {
		return &Command{Path: DefaultCommand, Args: DefaultArgs}
	}
	return &Command{Path: path, Args: args}
}

// Recognize implements Recognizer.
func (c *Command) Recognize(ctx context.Context, image []byte) (string, error) {
	if c == nil || c.Path == "" {
		return "", ErrNotConfigured
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("running %s: %w: %s", c.Path, err, msg)
		}
		return "", fmt.Errorf("running %s: %w", c.Path, err)
	}
	return stdout.String(), nil
}
