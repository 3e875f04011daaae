// Package npy reads and writes the NumPy .npy array container, the on-disk
// format used by spike sorters for sample indices, cluster assignments and
// channel geometry. Only C-ordered numeric arrays of up to two dimensions
// are supported; values are widened to float64 on read.
package npy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var magic = []byte("\x93NUMPY")

// Array is a dense numeric array in row-major order. Shape has one or two
// entries; Data holds the values flattened row by row.
type Array struct {
	Shape []int
	Data  []float64
}

// Len returns the total element count.
func (a *Array) Len() int { return len(a.Data) }

// Rows and Cols interpret the array as 2-D; a 1-D array is one column.
func (a *Array) Rows() int {
	if len(a.Shape) == 0 {
		return 0
	}
	return a.Shape[0]
}

func (a *Array) Cols() int {
	if len(a.Shape) < 2 {
		return 1
	}
	return a.Shape[1]
}

// At returns the element at row i, column j.
func (a *Array) At(i, j int) float64 {
	return a.Data[i*a.Cols()+j]
}

// Column extracts column j as a fresh slice.
func (a *Array) Column(j int) []float64 {
	out := make([]float64, a.Rows())
	for i := range out {
		out[i] = a.At(i, j)
	}
	return out
}

// ReadFile reads a .npy file from disk.
func ReadFile(path string) (*Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	arr, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return arr, nil
}

// Read parses a .npy stream.
func Read(r io.Reader) (*Array, error) {
	head := make([]byte, 8)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("error reading npy magic: %w", err)
	}
	if !bytes.Equal(head[:6], magic) {
		return nil, fmt.Errorf("not an npy file (bad magic)")
	}
	major := head[6]

	var headerLen int
	switch major {
	case 1:
		b := make([]byte, 2)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("error reading header length: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint16(b))
	case 2, 3:
		b := make([]byte, 4)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("error reading header length: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint32(b))
	default:
		return nil, fmt.Errorf("unsupported npy version %d", major)
	}

	hdr := make([]byte, headerLen)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}
	descr, fortran, shape, err := parseHeader(string(hdr))
	if err != nil {
		return nil, err
	}
	if fortran {
		return nil, fmt.Errorf("fortran-ordered npy arrays are not supported")
	}
	if len(shape) == 0 || len(shape) > 2 {
		return nil, fmt.Errorf("unsupported npy rank %d", len(shape))
	}

	n := 1
	for _, s := range shape {
		n *= s
	}
	size, convert, err := dtypeReader(descr)
	if err != nil {
		return nil, err
	}

	raw := make([]byte, n*size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("error reading array body: %w", err)
	}
	data := make([]float64, n)
	for i := 0; i < n; i++ {
		data[i] = convert(raw[i*size:])
	}
	return &Array{Shape: shape, Data: data}, nil
}

// parseHeader pulls descr, fortran_order and shape out of the python-dict
// header string, e.g. {'descr': '<u8', 'fortran_order': False, 'shape': (120,), }.
func parseHeader(hdr string) (descr string, fortran bool, shape []int, err error) {
	descr, err = headerField(hdr, "'descr':")
	if err != nil {
		return "", false, nil, err
	}
	descr = strings.Trim(descr, "' ")

	order, err := headerField(hdr, "'fortran_order':")
	if err != nil {
		return "", false, nil, err
	}
	fortran = strings.HasPrefix(strings.TrimSpace(order), "True")

	open := strings.Index(hdr, "(")
	close_ := strings.Index(hdr, ")")
	if open < 0 || close_ < open {
		return "", false, nil, fmt.Errorf("npy header has no shape tuple: %q", hdr)
	}
	for _, part := range strings.Split(hdr[open+1:close_], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dim, convErr := strconv.Atoi(part)
		if convErr != nil {
			return "", false, nil, fmt.Errorf("bad npy shape entry %q: %w", part, convErr)
		}
		shape = append(shape, dim)
	}
	if len(shape) == 0 {
		// A scalar shape () stores exactly one element.
		shape = []int{1}
	}
	return descr, fortran, shape, nil
}

func headerField(hdr, key string) (string, error) {
	i := strings.Index(hdr, key)
	if i < 0 {
		return "", fmt.Errorf("npy header missing %s", key)
	}
	rest := hdr[i+len(key):]
	if j := strings.IndexAny(rest, ",}"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest), nil
}

func dtypeReader(descr string) (size int, convert func([]byte) float64, err error) {
	switch descr {
	case "|u1", "<u1":
		return 1, func(b []byte) float64 { return float64(b[0]) }, nil
	case "|i1", "<i1":
		return 1, func(b []byte) float64 { return float64(int8(b[0])) }, nil
	case "<u2":
		return 2, func(b []byte) float64 { return float64(binary.LittleEndian.Uint16(b)) }, nil
	case "<i2":
		return 2, func(b []byte) float64 { return float64(int16(binary.LittleEndian.Uint16(b))) }, nil
	case "<u4":
		return 4, func(b []byte) float64 { return float64(binary.LittleEndian.Uint32(b)) }, nil
	case "<i4":
		return 4, func(b []byte) float64 { return float64(int32(binary.LittleEndian.Uint32(b))) }, nil
	case "<u8":
		return 8, func(b []byte) float64 { return float64(binary.LittleEndian.Uint64(b)) }, nil
	case "<i8":
		return 8, func(b []byte) float64 { return float64(int64(binary.LittleEndian.Uint64(b))) }, nil
	case "<f4":
		return 4, func(b []byte) float64 { return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))) }, nil
	case "<f8":
		return 8, func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }, nil
	}
	return 0, nil, fmt.Errorf("unsupported npy dtype %q", descr)
}

// WriteFile writes data as a little-endian float64 .npy file.
func WriteFile(path string, shape []int, data []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := Write(w, shape, data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return w.Flush()
}

// Write emits a version 1.0 .npy stream with dtype '<f8'.
func Write(w io.Writer, shape []int, data []float64) error {
	n := 1
	dims := make([]string, len(shape))
	for i, s := range shape {
		n *= s
		dims[i] = strconv.Itoa(s)
	}
	if n != len(data) {
		return fmt.Errorf("npy write: shape %v holds %d elements but %d were given", shape, n, len(data))
	}

	shapeStr := strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapeStr += ","
	}
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%s), }", shapeStr)
	// Total header size (magic + version + length field + dict) is padded
	// to a 64-byte boundary, terminated with a newline.
	pad := 64 - (len(magic)+2+2+len(header)+1)%64
	if pad == 64 {
		pad = 0
	}
	header += strings.Repeat(" ", pad) + "\n"

	if _, err := w.Write(magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	buf := make([]byte, 8)
	for _, v := range data {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
