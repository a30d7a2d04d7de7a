package codec

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Codec turns a snapshot into bytes and back. Encodings must round-trip
// every snapshot field exactly.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

const (
	JSONName = "json"
	CBORName = "cbor"
)

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	switch name {
	case "", JSONName:
		return JSON{}, nil
	case CBORName:
		return CBOR(), nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}

type JSON struct{}

func (JSON) Name() string { return JSONName }

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var defaultCBOR = mustCBOR()

// CBOR returns the Core Deterministic CBOR codec. Struct fields reuse their
// json tags as CBOR map keys; times are written as RFC 3339 strings with
// nanoseconds so sub-second precision survives.
func CBOR() Codec { return defaultCBOR }

func mustCBOR() *cborCodec {
	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano

	enc, err := encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}

	return &cborCodec{enc: enc, dec: dec}
}

func (c *cborCodec) Name() string { return CBORName }

func (c *cborCodec) Marshal(v any) ([]byte, error) { return c.enc.Marshal(v) }

func (c *cborCodec) Unmarshal(data []byte, v any) error { return c.dec.Unmarshal(data, v) }
