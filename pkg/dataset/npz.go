package dataset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
)

const (
	keyX = "X"
	keyY = "y"
)

var (
	npyMagic = []byte("\x93NUMPY")

	descrRe   = regexp.MustCompile(`'descr'\s*:\s*'([^']+)'`)
	fortranRe = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	shapeRe   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// LoadNPZ reads a numpy archive holding an X array of shape
// [samples, steps, features] and a y array of shape [samples].
func LoadNPZ(path string) (Dataset, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer zr.Close()

	arrays := make(map[string]array, 2)
	for _, f := range zr.File {
		name := strings.TrimSuffix(f.Name, ".npy")
		if name != keyX && name != keyY {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return Dataset{}, fmt.Errorf("failed to open member %s: %w", f.Name, err)
		}
		arr, err := readNPY(rc)
		rc.Close()
		if err != nil {
			return Dataset{}, fmt.Errorf("member %s: %w", f.Name, err)
		}
		arrays[name] = arr
	}

	x, ok := arrays[keyX]
	if !ok {
		return Dataset{}, fmt.Errorf("%w: missing %q array", ErrMalformed, keyX)
	}
	y, ok := arrays[keyY]
	if !ok {
		return Dataset{}, fmt.Errorf("%w: missing %q array", ErrMalformed, keyY)
	}

	d, err := fromArrays(x, y)
	if err != nil {
		return Dataset{}, err
	}

	return d, d.Validate()
}

// SaveNPZ writes d in the layout LoadNPZ reads.
func SaveNPZ(path string, d Dataset) error {
	if err := d.Validate(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	steps, features := d.Shape()
	x := array{shape: []int{d.Len(), steps, features}, data: make([]float64, 0, d.Len()*steps*features)}
	for _, seq := range d.X {
		for _, step := range seq {
			x.data = append(x.data, step...)
		}
	}
	y := array{shape: []int{d.Len()}, data: make([]float64, d.Len())}
	for i, v := range d.Y {
		y.data[i] = float64(v)
	}

	zw := zip.NewWriter(f)
	if err := writeMember(zw, keyX, x, "<f8"); err != nil {
		f.Close()

		return err
	}
	if err := writeMember(zw, keyY, y, "<i8"); err != nil {
		f.Close()

		return err
	}
	if err := zw.Close(); err != nil {
		f.Close()

		return fmt.Errorf("failed to finish archive: %w", err)
	}

	return f.Close()
}

type array struct {
	shape []int
	data  []float64
}

func fromArrays(x, y array) (Dataset, error) {
	if len(x.shape) != 3 {
		return Dataset{}, fmt.Errorf("%w: X must be rank 3, got shape %v", ErrMalformed, x.shape)
	}
	if len(y.shape) != 1 {
		return Dataset{}, fmt.Errorf("%w: y must be rank 1, got shape %v", ErrMalformed, y.shape)
	}
	n, steps, features := x.shape[0], x.shape[1], x.shape[2]
	if y.shape[0] != n {
		return Dataset{}, fmt.Errorf("%w: %d sequences, %d labels", ErrMalformed, n, y.shape[0])
	}

	d := Dataset{X: make([][][]float64, n), Y: make([]int, n)}
	for i := range n {
		d.X[i] = make([][]float64, steps)
		for t := range steps {
			off := (i*steps + t) * features
			d.X[i][t] = x.data[off : off+features : off+features]
		}
		d.Y[i] = int(y.data[i])
	}

	return d, nil
}

func readNPY(r io.Reader) (array, error) {
	prefix := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return array{}, fmt.Errorf("%w: short header: %w", ErrMalformed, err)
	}
	if !bytes.Equal(prefix[:len(npyMagic)], npyMagic) {
		return array{}, fmt.Errorf("%w: not an npy array", ErrMalformed)
	}

	var headerLen int
	switch major := prefix[len(npyMagic)]; major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return array{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		headerLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return array{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		headerLen = int(n)
	default:
		return array{}, fmt.Errorf("%w: unsupported npy version %d", ErrMalformed, major)
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return array{}, fmt.Errorf("%w: short header: %w", ErrMalformed, err)
	}
	descr, shape, err := parseHeader(string(header))
	if err != nil {
		return array{}, err
	}

	n := 1
	for _, d := range shape {
		n *= d
	}
	data, err := decode(r, descr, n)
	if err != nil {
		return array{}, err
	}

	return array{shape: shape, data: data}, nil
}

func parseHeader(h string) (string, []int, error) {
	m := descrRe.FindStringSubmatch(h)
	if m == nil {
		return "", nil, fmt.Errorf("%w: header has no descr", ErrMalformed)
	}
	descr := m[1]

	if m := fortranRe.FindStringSubmatch(h); m == nil || m[1] == "True" {
		return "", nil, fmt.Errorf("%w: only C-ordered arrays are supported", ErrMalformed)
	}

	m = shapeRe.FindStringSubmatch(h)
	if m == nil {
		return "", nil, fmt.Errorf("%w: header has no shape", ErrMalformed)
	}
	var shape []int
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return "", nil, fmt.Errorf("%w: bad dimension %q", ErrMalformed, part)
		}
		shape = append(shape, v)
	}

	return descr, shape, nil
}

func decode(r io.Reader, descr string, n int) ([]float64, error) {
	if strings.HasPrefix(descr, ">") {
		return nil, fmt.Errorf("%w: big-endian %s is not supported", ErrMalformed, descr)
	}
	kind := strings.TrimLeft(descr, "<|=")

	var size int
	var conv func([]byte) float64
	switch kind {
	case "f8":
		size, conv = 8, func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }
	case "f4":
		size, conv = 4, func(b []byte) float64 { return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))) }
	case "i8":
		size, conv = 8, func(b []byte) float64 { return float64(int64(binary.LittleEndian.Uint64(b))) }
	case "i4":
		size, conv = 4, func(b []byte) float64 { return float64(int32(binary.LittleEndian.Uint32(b))) }
	case "i1":
		size, conv = 1, func(b []byte) float64 { return float64(int8(b[0])) }
	case "u1", "b1":
		size, conv = 1, func(b []byte) float64 { return float64(b[0]) }
	default:
		return nil, fmt.Errorf("%w: unsupported dtype %s", ErrMalformed, descr)
	}

	raw := make([]byte, n*size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: truncated data: %w", ErrMalformed, err)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = conv(raw[i*size : (i+1)*size])
	}

	return out, nil
}

func writeMember(zw *zip.Writer, name string, a array, descr string) error {
	w, err := zw.Create(name + ".npy")
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}

	dims := make([]string, len(a.shape))
	for i, d := range a.shape {
		dims[i] = strconv.Itoa(d)
	}
	shape := strings.Join(dims, ", ")
	if len(dims) == 1 {
		shape += ","
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", descr, shape)
	// magic + version + length field + header + newline is padded to 64 bytes.
	pad := 64 - (len(npyMagic)+4+len(header)+1)%64
	header += strings.Repeat(" ", pad%64) + "\n"

	buf := bytes.NewBuffer(make([]byte, 0, len(npyMagic)+4+len(header)+8*len(a.data)))
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	_ = binary.Write(buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)

	word := make([]byte, 8)
	for _, v := range a.data {
		if descr == "<i8" {
			binary.LittleEndian.PutUint64(word, uint64(int64(v)))
		} else {
			binary.LittleEndian.PutUint64(word, math.Float64bits(v))
		}
		buf.Write(word)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return nil
}
