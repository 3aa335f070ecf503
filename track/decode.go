package track

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrEmpty             = errors.New("no audio frames")
)

// DecodeError reports a file that could not be turned into a Buffer.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return "decode " + e.Name + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode turns encoded bytes into a Buffer. The container is picked from the
// extension of name and, failing that, from the leading bytes.
func Decode(name string, raw []byte) (*Buffer, error) {
	kind := strings.ToLower(filepath.Ext(name))
	if kind != ".mp3" && kind != ".wav" {
		kind = sniff(raw)
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch kind {
	case ".mp3":
		s, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(raw)))
	case ".wav":
		s, format, err = wav.Decode(bytes.NewReader(raw))
	default:
		return nil, &DecodeError{Name: name, Err: ErrUnsupportedFormat}
	}
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	defer s.Close()

	buf := FromStreamer(name, format, s)
	if err := s.Err(); err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	if buf.Len() == 0 {
		return nil, &DecodeError{Name: name, Err: ErrEmpty}
	}
	return buf, nil
}

// ReadFile reads and decodes the file at path.
func ReadFile(path string) (*Buffer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Decode(filepath.Base(path), raw)
}

func sniff(raw []byte) string {
	switch {
	case len(raw) >= 12 && string(raw[0:4]) == "RIFF" && string(raw[8:12]) == "WAVE":
		return ".wav"
	case len(raw) >= 3 && string(raw[0:3]) == "ID3":
		return ".mp3"
	case len(raw) >= 2 && raw[0] == 0xFF && raw[1]&0xE0 == 0xE0:
		return ".mp3"
	}
	return ""
}
