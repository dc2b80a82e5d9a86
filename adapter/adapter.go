// Package adapter provides ready-made memory adapters for common external
// types carried over bytes and integer shapes.
//
// Each constructor returns a fresh *codec.MemAdapter; bind it as the
// memory form of the position it applies to:
//
//	mem := &codec.MemRecord{Fields: map[string]codec.Mem{
//	    "address": adapter.Base58(),
//	    "created": adapter.UnixMillis(),
//	}}
//	c, err := reg.Bind(account, mem, nil)
package adapter

import (
	"encoding/base64"
	"encoding/hex"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/segmentio/ksuid"

	"github.com/wippyai/spac/codec"
	"github.com/wippyai/spac/errors"
)

// Base58 presents bytes as a base58 string (Bitcoin alphabet).
func Base58() *codec.MemAdapter {
	return codec.Adapt(codec.MemBytes{}, base58Decode, base58Encode).
		WithSymbols(codec.Symbols{
			TypeName:  "string",
			DefinedIn: "github.com/mr-tron/base58",
			ToBase:    "Decode",
			FromBase:  "Encode",
		})
}

func base58Decode(s string) ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}
	return base58.Decode(s)
}

func base58Encode(b []byte) (string, error) {
	return base58.Encode(b), nil
}

// Hex presents bytes as a lowercase hexadecimal string.
func Hex() *codec.MemAdapter {
	return codec.Adapt(codec.MemBytes{},
		hex.DecodeString,
		func(b []byte) (string, error) { return hex.EncodeToString(b), nil },
	).WithSymbols(codec.Symbols{DefinedIn: "encoding/hex", ToBase: "DecodeString", FromBase: "EncodeToString"})
}

// Base64 presents bytes as a standard, padded base64 string.
func Base64() *codec.MemAdapter {
	return codec.Adapt(codec.MemBytes{},
		base64.StdEncoding.DecodeString,
		func(b []byte) (string, error) { return base64.StdEncoding.EncodeToString(b), nil },
	).WithSymbols(codec.Symbols{DefinedIn: "encoding/base64", ToBase: "StdEncoding.DecodeString", FromBase: "StdEncoding.EncodeToString"})
}

// UUID presents 16 bytes as a uuid.UUID.
func UUID() *codec.MemAdapter {
	return codec.Adapt(codec.MemBytes{},
		func(u uuid.UUID) ([]byte, error) { return u[:], nil },
		uuid.FromBytes,
	).WithSymbols(codec.Symbols{DefinedIn: "github.com/google/uuid", FromBase: "FromBytes"})
}

// UUIDString presents 16 bytes as a canonical UUID string. Parsing accepts
// every form uuid.Parse does; decoding always yields the hyphenated form.
func UUIDString() *codec.MemAdapter {
	return codec.Adapt(codec.MemBytes{},
		func(s string) ([]byte, error) {
			u, err := uuid.Parse(s)
			if err != nil {
				return nil, err
			}
			return u[:], nil
		},
		func(b []byte) (string, error) {
			u, err := uuid.FromBytes(b)
			if err != nil {
				return "", err
			}
			return u.String(), nil
		},
	).WithSymbols(codec.Symbols{DefinedIn: "github.com/google/uuid", ToBase: "Parse", FromBase: "FromBytes"})
}

// KSUID presents 20 bytes as a ksuid.KSUID.
func KSUID() *codec.MemAdapter {
	return codec.Adapt(codec.MemBytes{},
		func(k ksuid.KSUID) ([]byte, error) { return k.Bytes(), nil },
		ksuid.FromBytes,
	).WithSymbols(codec.Symbols{DefinedIn: "github.com/segmentio/ksuid", FromBase: "FromBytes"})
}

// UnixMillis presents an integer count of milliseconds since the Unix
// epoch as a time.Time in UTC. Precision below a millisecond is dropped.
func UnixMillis() *codec.MemAdapter {
	return codec.Adapt(codec.MemInteger{},
		func(t time.Time) (int64, error) { return t.UnixMilli(), nil },
		func(ms int64) (time.Time, error) { return time.UnixMilli(ms).UTC(), nil },
	).WithSymbols(codec.Symbols{DefinedIn: "time", ToBase: "Time.UnixMilli", FromBase: "UnixMilli"})
}

var registry = map[string]func() *codec.MemAdapter{
	"base58":      Base58,
	"hex":         Hex,
	"base64":      Base64,
	"uuid":        UUIDString,
	"ksuid":       KSUID,
	"unix-millis": UnixMillis,
}

// ByName returns the adapter registered under name, for configuration
// files. "uuid" selects the string form since configured values arrive as
// text.
func ByName(name string) (*codec.MemAdapter, error) {
	f, ok := registry[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseConfig, "adapter", name)
	}
	return f(), nil
}

// Names lists the names ByName accepts.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
