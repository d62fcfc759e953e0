package codec

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// CodecError wraps any failure inside the codec. Callers must treat it as
// a signal to fall back to the duplicated plain fields on the envelope,
// never as a fatal error for the enclosing operation.
type CodecError struct {
	Op  string
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec %s: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// zstdEncoder and zstdDecoder are reused across calls to avoid repeated
// initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress serializes doc to JSON and zstd-compresses the result. The
// output is what gets persisted in the envelope's payload column.
func Compress(doc any) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, &CodecError{Op: "marshal", Err: err}
	}
	return zstdEncoder.EncodeAll(raw, nil), nil
}

// Decompress decodes a compressed payload into out. The input may arrive
// as a raw byte slice, a string, json.RawMessage, or any other value a
// storage driver hands back; it is coerced to bytes before decoding
// instead of being rejected on type. Every failure is a *CodecError.
func Decompress(raw any, out any) error {
	buf, err := coerceBytes(raw)
	if err != nil {
		return &CodecError{Op: "coerce", Err: err}
	}
	if len(buf) == 0 {
		return &CodecError{Op: "decompress", Err: fmt.Errorf("empty payload")}
	}

	plain, err := zstdDecoder.DecodeAll(buf, nil)
	if err != nil {
		return &CodecError{Op: "decompress", Err: err}
	}

	if err := json.Unmarshal(plain, out); err != nil {
		return &CodecError{Op: "unmarshal", Err: err}
	}
	return nil
}

// coerceBytes turns any driver-shaped payload value into a byte slice.
// Unknown types are round-tripped through JSON as a last resort so the
// codec degrades instead of erroring on a surprising wrapper type.
func coerceBytes(raw any) ([]byte, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return []byte(v), nil
	case string:
		return []byte(v), nil
	case fmt.Stringer:
		return []byte(v.String()), nil
	default:
		buf, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("unsupported payload type %T: %w", raw, err)
		}
		return buf, nil
	}
}
