package artifact

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/franz/imagevault/internal/diff"
	"github.com/franz/imagevault/internal/transform"
	"github.com/franz/imagevault/internal/util"
)

// Binary container layout: 4-byte magic, then one zstd frame holding a
// deterministically encoded CBOR envelope. Dtype and shape survive exactly,
// and the kind tag makes the payload self-describing — no shape sniffing.
var binaryMagic = []byte("IVA1")

type envelope struct {
	Kind  string `cbor:"kind"`
	Dtype string `cbor:"dtype"`
	Shape []int  `cbor:"shape"`
	Data  []byte `cbor:"data"`
}

// encMode uses Core Deterministic Encoding so the same artifact always
// produces identical bytes.
var encMode cbor.EncMode

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("artifact: CBOR encoder initialization failed: " + err.Error())
	}
	zstdEncoder, err = zstd.NewWriter(nil)
	if err != nil {
		panic("artifact: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("artifact: zstd decoder initialization failed: " + err.Error())
	}
}

func encodeBinary(a Artifact) ([]byte, error) {
	var env envelope
	switch a.Kind {
	case KindTransform:
		data := make([]byte, 0, 9*4)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				data = binary.LittleEndian.AppendUint32(data, math.Float32bits(a.Transform[i][j]))
			}
		}
		env = envelope{Kind: "transform", Dtype: "float32", Shape: []int{3, 3}, Data: data}

	case KindPixelDiff:
		d := a.Diff
		env = envelope{Kind: "pixeldiff", Shape: []int{d.Height, d.Width, 3}}
		if d.Depth == diff.Int8 {
			env.Dtype = "int8"
			data := make([]byte, len(d.I8))
			for i, v := range d.I8 {
				data[i] = byte(v)
			}
			env.Data = data
		} else {
			env.Dtype = "int16"
			data := make([]byte, 0, len(d.I16)*2)
			for _, v := range d.I16 {
				data = binary.LittleEndian.AppendUint16(data, uint16(v))
			}
			env.Data = data
		}

	default:
		return nil, fmt.Errorf("artifact kind %v: %w", a.Kind, util.ErrUnsupported)
	}

	raw, err := encMode.Marshal(env)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(binaryMagic), len(binaryMagic)+len(raw)/2)
	copy(out, binaryMagic)
	return zstdEncoder.EncodeAll(raw, out), nil
}

func decodeBinary(data []byte, path string) (Artifact, error) {
	if !bytes.HasPrefix(data, binaryMagic) {
		return Artifact{}, fmt.Errorf("%s: missing container magic: %w", path, util.ErrFormat)
	}
	raw, err := zstdDecoder.DecodeAll(data[len(binaryMagic):], nil)
	if err != nil {
		return Artifact{}, fmt.Errorf("%s: %v: %w", path, err, util.ErrFormat)
	}
	var env envelope
	if err := cbor.Unmarshal(raw, &env); err != nil {
		return Artifact{}, fmt.Errorf("%s: %v: %w", path, err, util.ErrFormat)
	}
	if len(env.Data) == 0 {
		return Artifact{}, fmt.Errorf("%s: container carries no payload: %w", path, util.ErrFormat)
	}

	switch env.Kind {
	case "transform":
		if env.Dtype != "float32" || len(env.Data) != 9*4 {
			return Artifact{}, fmt.Errorf("%s: bad transform payload: %w", path, util.ErrFormat)
		}
		var m transform.Matrix
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				bits := binary.LittleEndian.Uint32(env.Data[(i*3+j)*4:])
				m[i][j] = math.Float32frombits(bits)
			}
		}
		return Transform(m), nil

	case "pixeldiff":
		return decodeBinaryDiff(env, path)

	default:
		return Artifact{}, fmt.Errorf("%s: unknown artifact kind %q: %w", path, env.Kind, util.ErrFormat)
	}
}

func decodeBinaryDiff(env envelope, path string) (Artifact, error) {
	if len(env.Shape) != 3 || env.Shape[2] != 3 {
		return Artifact{}, fmt.Errorf("%s: bad diff shape %v: %w", path, env.Shape, util.ErrFormat)
	}
	h, w := env.Shape[0], env.Shape[1]
	if h <= 0 || w <= 0 {
		return Artifact{}, fmt.Errorf("%s: bad diff shape %v: %w", path, env.Shape, util.ErrFormat)
	}

	var elem int
	switch env.Dtype {
	case "int8":
		elem = 1
	case "int16":
		elem = 2
	default:
		return Artifact{}, fmt.Errorf("%s: unknown dtype %q: %w", path, env.Dtype, util.ErrFormat)
	}

	// Size the payload against the claimed shape before allocating anything,
	// so a corrupt envelope cannot drive an oversized make. The division form
	// avoids overflowing h*w*3 on absurd dimensions.
	n := len(env.Data) / elem
	if len(env.Data)%elem != 0 || n/3/w != h || n%(3*w) != 0 {
		return Artifact{}, fmt.Errorf("%s: diff payload size mismatch for shape %v: %w", path, env.Shape, util.ErrFormat)
	}

	d := diff.New(h, w)
	if elem == 1 {
		for i := 0; i < n; i++ {
			d.I16[i] = int16(int8(env.Data[i]))
		}
	} else {
		for i := 0; i < n; i++ {
			d.I16[i] = int16(binary.LittleEndian.Uint16(env.Data[i*2:]))
		}
	}
	return PixelDiff(d.Narrow()), nil
}
