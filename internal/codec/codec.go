// Package codec wraps CBOR encoding for expedition export blobs.
// Encoding is deterministic (RFC 8949 Core Deterministic Encoding) so
// exporting the same expedition state twice yields identical bytes,
// which makes backups comparable.
package codec

import (
	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to deterministic CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v. Unknown fields are ignored for
// forward compatibility.
func Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}
