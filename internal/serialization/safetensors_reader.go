package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/upsample/internal/tensor"
)

// File is a decoded SafeTensors file.
type File struct {
	Metadata map[string]string
	Headers  map[string]SafeTensorHeader
	Tensors  map[string]*tensor.RawTensor
}

// Names returns the tensor names in file order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Headers))
	for name := range f.Headers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return f.Headers[names[i]].DataOffsets[0] < f.Headers[names[j]].DataOffsets[0]
	})
	return names
}

// ReadSafeTensors reads and validates a SafeTensors file.
func ReadSafeTensors(path string) (*File, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for weight loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close() // Read-only, close error carries no information
	}()

	return Decode(file)
}

// Decode reads a SafeTensors stream from in.
func Decode(in io.Reader) (*File, error) {
	var headerSize uint64
	if err := binary.Read(in, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(in, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(headerBytes, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	f := &File{
		Headers: make(map[string]SafeTensorHeader, len(rawMap)),
		Tensors: make(map[string]*tensor.RawTensor, len(rawMap)),
	}
	for key, value := range rawMap {
		if key == metadataKey {
			if err := json.Unmarshal(value, &f.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
			continue
		}
		var h SafeTensorHeader
		if err := json.Unmarshal(value, &h); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		f.Headers[key] = h
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if err := validateOffsets(f.Headers, int64(len(data))); err != nil {
		return nil, err
	}

	for name, h := range f.Headers {
		dtype, err := dtypeFromSafeTensors(h.DType)
		if err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		shape := make(tensor.Shape, len(h.Shape))
		for i, dim := range h.Shape {
			shape[i] = int(dim)
		}

		buf := make([]byte, h.DataOffsets[1]-h.DataOffsets[0])
		copy(buf, data[h.DataOffsets[0]:h.DataOffsets[1]])
		raw, err := tensor.FromBytes(shape, dtype, buf)
		if err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		f.Tensors[name] = raw
	}

	return f, nil
}

// validateOffsets checks for negative, overlapping and out-of-bounds regions.
func validateOffsets(headers map[string]SafeTensorHeader, dataSize int64) error {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return headers[names[i]].DataOffsets[0] < headers[names[j]].DataOffsets[0]
	})

	for i, name := range names {
		start, end := headers[name].DataOffsets[0], headers[name].DataOffsets[1]
		if start < 0 || end < start {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  name,
				Details: fmt.Sprintf("offsets [%d, %d)", start, end),
				Err:     ErrNegativeOffset,
			}
		}
		if end > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  name,
				Details: fmt.Sprintf("end %d > data_size %d", end, dataSize),
				Err:     ErrOutOfBounds,
			}
		}
		if i < len(names)-1 {
			next := names[i+1]
			if end > headers[next].DataOffsets[0] {
				return &ValidationError{
					Type:    "offset_overlap",
					Tensor:  name,
					Tensor2: next,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						start, end, headers[next].DataOffsets[0], headers[next].DataOffsets[1]),
					Err: ErrOffsetOverlap,
				}
			}
		}
	}
	return nil
}
