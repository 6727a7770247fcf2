package protocol

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/annel0/voxel-terrain/internal/world"
	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protowire"
)

// Геометрия кодируется как protobuf-сообщение (до сжатия):
//
//	message Geometry {
//	  uint32 vertex_count       = 1;
//	  repeated float positions = 2 [packed = true]; // vertex_count*3
//	  repeated float normals   = 3 [packed = true]; // vertex_count*3
//	  repeated float uvs       = 4 [packed = true]; // vertex_count*2
//	}
const (
	fieldVertexCount protowire.Number = 1
	fieldPositions   protowire.Number = 2
	fieldNormals     protowire.Number = 3
	fieldUVs         protowire.Number = 4
)

// maxVertices предел количества вершин в одном меше
const maxVertices = 1 << 26

// Ошибки декодирования
var (
	ErrMalformed    = errors.New("protocol: malformed geometry payload")
	ErrTruncated    = errors.New("protocol: truncated geometry payload")
	ErrTrailingData = errors.New("protocol: more floats than declared vertices")
)

// GeometryCodec кодирует геометрию меша в protobuf и сжимает zstd
type GeometryCodec struct {
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

// NewGeometryCodec создаёт кодек. Кодек безопасен для конкурентного использования.
func NewGeometryCodec() (*GeometryCodec, error) {
	compressor, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания компрессора: %w", err)
	}
	decompressor, err := zstd.NewReader(nil)
	if err != nil {
		compressor.Close()
		return nil, fmt.Errorf("ошибка создания декомпрессора: %w", err)
	}
	return &GeometryCodec{compressor: compressor, decompressor: decompressor}, nil
}

// Close освобождает ресурсы zstd
func (c *GeometryCodec) Close() {
	_ = c.compressor.Close()
	c.decompressor.Close()
}

// Encode сериализует и сжимает геометрию
func (c *GeometryCodec) Encode(g *world.Geometry) ([]byte, error) {
	raw, err := MarshalGeometry(g)
	if err != nil {
		return nil, err
	}
	return c.compressor.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

// Decode распаковывает и разбирает геометрию
func (c *GeometryCodec) Decode(data []byte) (*world.Geometry, error) {
	raw, err := c.decompressor.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки геометрии: %w", err)
	}
	return UnmarshalGeometry(raw)
}

// MarshalGeometry protobuf-представление без сжатия
func MarshalGeometry(g *world.Geometry) ([]byte, error) {
	n := len(g.Positions)
	if len(g.Normals) != n || len(g.UVs) != n {
		return nil, fmt.Errorf("protocol: inconsistent geometry buffers (%d/%d/%d)", n, len(g.Normals), len(g.UVs))
	}
	if n > maxVertices {
		return nil, fmt.Errorf("protocol: too many vertices: %d", n)
	}

	b := make([]byte, 0, 16+n*8*4)
	b = protowire.AppendTag(b, fieldVertexCount, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(n))
	if n == 0 {
		return b, nil
	}

	b = appendPackedHeader(b, fieldPositions, n*3)
	for _, p := range g.Positions {
		b = appendFloats(b, p[:]...)
	}
	b = appendPackedHeader(b, fieldNormals, n*3)
	for _, nrm := range g.Normals {
		b = appendFloats(b, nrm[:]...)
	}
	b = appendPackedHeader(b, fieldUVs, n*2)
	for _, uv := range g.UVs {
		b = appendFloats(b, uv[:]...)
	}
	return b, nil
}

func appendPackedHeader(b []byte, num protowire.Number, floats int) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendVarint(b, uint64(floats*4))
}

func appendFloats(b []byte, fs ...float32) []byte {
	for _, f := range fs {
		b = protowire.AppendFixed32(b, math.Float32bits(f))
	}
	return b
}

// parseError переводит код ошибки protowire в ошибки пакета
func parseError(n int) error {
	if errors.Is(protowire.ParseError(n), io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
}

// UnmarshalGeometry разбирает protobuf-представление без сжатия.
// Неизвестные поля пропускаются; повторяющиеся packed-поля склеиваются.
func UnmarshalGeometry(data []byte) (*world.Geometry, error) {
	var (
		count   uint64
		streams [fieldUVs + 1][]float32
	)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, parseError(n)
		}
		data = data[n:]

		switch {
		case num == fieldVertexCount && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, parseError(n)
			}
			if v > maxVertices {
				return nil, fmt.Errorf("%w: vertex count %d", ErrMalformed, v)
			}
			count = v
			data = data[n:]
		case num >= fieldPositions && num <= fieldUVs && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, parseError(n)
			}
			if len(packed)%4 != 0 {
				return nil, fmt.Errorf("%w: field %d is not packed fixed32", ErrMalformed, num)
			}
			for len(packed) > 0 {
				bits, m := protowire.ConsumeFixed32(packed)
				streams[num] = append(streams[num], math.Float32frombits(bits))
				packed = packed[m:]
			}
			data = data[n:]
		case num >= fieldVertexCount && num <= fieldUVs:
			return nil, fmt.Errorf("%w: field %d has wire type %d", ErrMalformed, num, typ)
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, parseError(n)
			}
			data = data[n:]
		}
	}

	vertices := int(count)
	for _, stream := range []struct {
		num   protowire.Number
		width int
	}{{fieldPositions, 3}, {fieldNormals, 3}, {fieldUVs, 2}} {
		switch got, want := len(streams[stream.num]), vertices*stream.width; {
		case got < want:
			return nil, ErrTruncated
		case got > want:
			return nil, ErrTrailingData
		}
	}

	g := &world.Geometry{
		Positions: make([][3]float32, vertices),
		Normals:   make([][3]float32, vertices),
		UVs:       make([][2]float32, vertices),
	}
	pos, nrm, uvs := streams[fieldPositions], streams[fieldNormals], streams[fieldUVs]
	for i := range vertices {
		g.Positions[i] = [3]float32{pos[i*3], pos[i*3+1], pos[i*3+2]}
		g.Normals[i] = [3]float32{nrm[i*3], nrm[i*3+1], nrm[i*3+2]}
		g.UVs[i] = [2]float32{uvs[i*2], uvs[i*2+1]}
	}
	return g, nil
}
