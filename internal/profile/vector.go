package profile

import (
	"fmt"
	"io"
	"os"

	"github.com/sbinet/npyio/npy"

	"speakerid/internal/fileutil"
)

// VectorExt is the file extension of stored vectors.
const VectorExt = ".npy"

// ReadVector decodes a 1-D float NumPy file. Both <f4 and <f8 payloads are
// accepted; values are widened to float64.
func ReadVector(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeVector(f)
}

func decodeVector(r io.Reader) ([]float64, error) {
	rd, err := npy.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("read npy header: %w", err)
	}
	var out []float64
	switch dtype := rd.Header.Descr.Type; dtype {
	case "<f8", "float64":
		if err := rd.Read(&out); err != nil {
			return nil, fmt.Errorf("read npy data: %w", err)
		}
	case "<f4", "float32":
		var narrow []float32
		if err := rd.Read(&narrow); err != nil {
			return nil, fmt.Errorf("read npy data: %w", err)
		}
		out = make([]float64, len(narrow))
		for i, v := range narrow {
			out[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("unsupported npy dtype %q", dtype)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty vector")
	}
	return out, nil
}

// WriteVector atomically writes vec as a little-endian float64 NumPy file.
func WriteVector(path string, vec []float64) error {
	if len(vec) == 0 {
		return fmt.Errorf("write %s: empty vector", path)
	}
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return npy.Write(w, vec)
	})
}
