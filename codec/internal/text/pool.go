package text

import (
	"sync"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// Little-endian, no byte order mark written or expected.
var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Encoders and decoders carry transform state, so each call borrows one.
var (
	encoderPool = sync.Pool{
		New: func() any { return utf16le.NewEncoder() },
	}
	decoderPool = sync.Pool{
		New: func() any { return utf16le.NewDecoder() },
	}
)

func getEncoder() *encoding.Encoder {
	enc := encoderPool.Get().(*encoding.Encoder)
	enc.Reset()
	return enc
}

func putEncoder(enc *encoding.Encoder) {
	encoderPool.Put(enc)
}

func getDecoder() *encoding.Decoder {
	dec := decoderPool.Get().(*encoding.Decoder)
	dec.Reset()
	return dec
}

func putDecoder(dec *encoding.Decoder) {
	decoderPool.Put(dec)
}
