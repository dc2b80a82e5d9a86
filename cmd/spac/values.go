package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"

	"github.com/wippyai/spac/codec"
	"github.com/wippyai/spac/errors"
	"github.com/wippyai/spac/internal/config"
	"github.com/wippyai/spac/shape"
)

// fromJSON converts a decoded JSON document (numbers as json.Number) into
// the memory form of s under cfg. Bytes are hex strings unless an adapter
// is configured for the field.
func fromJSON(cfg *config.Config, s shape.Shape, v any, path []string) (any, error) {
	switch t := s.(type) {
	case shape.Void:
		if cfg.Void == config.VoidUnit {
			return codec.Unit{}, nil
		}
		return nil, nil

	case shape.Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, mismatch(path, v, "bool")
		}
		return b, nil

	case shape.Integer:
		n, ok := v.(json.Number)
		if !ok {
			return nil, mismatch(path, v, "integer")
		}
		i, err := n.Int64()
		if err != nil {
			return nil, mismatch(path, v, "integer")
		}
		return i, nil

	case shape.String:
		str, ok := v.(string)
		if !ok {
			return nil, mismatch(path, v, "string")
		}
		return str, nil

	case shape.Bytes:
		str, ok := v.(string)
		if !ok {
			return nil, mismatch(path, v, "hex string")
		}
		b, err := hex.DecodeString(str)
		if err != nil {
			return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Path(path...).
				Cause(err).
				Detail("bytes must be a hex string").
				Build()
		}
		return b, nil

	case shape.Unknown:
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidVariant).
			Path(path...).
			Detail("unknown alternatives cannot be encoded").
			Build()

	case *shape.Record:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, mismatch(path, v, "object")
		}
		return recordFromJSON(cfg, t, obj, path)

	case *shape.Union:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, mismatch(path, v, "object")
		}
		return unionFromJSON(cfg, t, obj, path)

	default:
		return nil, errors.InvalidShape(path, "unknown shape case")
	}
}

func recordFromJSON(cfg *config.Config, r *shape.Record, obj map[string]any, path []string) (map[string]any, error) {
	out := make(map[string]any, len(r.Fields))
	for _, f := range r.Fields {
		fv, ok := obj[f.Name]
		if !ok {
			continue
		}
		fpath := extend(path, f.Name)
		var (
			mv  any
			err error
		)
		if name, adapted := cfg.Adapters[r.Name][f.Name]; adapted {
			mv, err = adaptedFromJSON(name, fv, fpath)
		} else {
			mv, err = fromJSON(cfg, f.Shape, fv, fpath)
		}
		if err != nil {
			return nil, err
		}
		out[f.Name] = mv
	}
	return out, nil
}

func unionFromJSON(cfg *config.Config, u *shape.Union, obj map[string]any, path []string) (map[string]any, error) {
	disc := discriminant(cfg, u)
	var label string
	switch d := obj[disc].(type) {
	case string:
		label = d
	case json.Number:
		label = d.String()
	default:
		return nil, errors.FieldMissing(errors.PhaseEncode, path, disc)
	}

	idx := -1
	for i := range u.Alternatives {
		if u.Label(i) == label {
			idx = i
			break
		}
	}
	if idx < 0 {
		if i, err := strconv.Atoi(label); err == nil && i >= 0 && i < len(u.Alternatives) {
			idx = i
		}
	}
	if idx < 0 {
		return nil, errors.NoAlternative(errors.PhaseEncode, path, disc, label)
	}

	alt := u.Alternatives[idx]
	apath := extend(path, u.Label(idx))
	if r, ok := alt.Shape.(*shape.Record); ok {
		fields := make(map[string]any, len(obj))
		for k, fv := range obj {
			if k != disc {
				fields[k] = fv
			}
		}
		out, err := recordFromJSON(cfg, r, fields, apath)
		if err != nil {
			return nil, err
		}
		out[disc] = label
		return out, nil
	}

	payload, err := fromJSON(cfg, alt.Shape, obj[codec.ValueKey], apath)
	if err != nil {
		return nil, err
	}
	return map[string]any{disc: label, codec.ValueKey: payload}, nil
}

// adaptedFromJSON converts v to the external type of the named adapter.
func adaptedFromJSON(name string, v any, path []string) (any, error) {
	switch name {
	case "unix-millis":
		switch t := v.(type) {
		case json.Number:
			ms, err := t.Int64()
			if err != nil {
				return nil, mismatch(path, v, "milliseconds")
			}
			return time.UnixMilli(ms).UTC(), nil
		case string:
			ts, err := time.Parse(time.RFC3339Nano, t)
			if err != nil {
				return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).Path(path...).Cause(err).Build()
			}
			return ts, nil
		}
		return nil, mismatch(path, v, "RFC 3339 time")
	case "ksuid":
		str, ok := v.(string)
		if !ok {
			return nil, mismatch(path, v, "ksuid string")
		}
		k, err := ksuid.Parse(str)
		if err != nil {
			return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).Path(path...).Cause(err).Build()
		}
		return k, nil
	default:
		str, ok := v.(string)
		if !ok {
			return nil, mismatch(path, v, name+" string")
		}
		return str, nil
	}
}

func discriminant(cfg *config.Config, u *shape.Union) string {
	if uc, ok := cfg.Unions[u.Name]; ok && uc.Discriminant != "" {
		return uc.Discriminant
	}
	return codec.DefaultDiscriminant
}

// plain turns a decoded memory value into plain data for JSON or CBOR
// output. hexBytes selects hex text for byte strings.
func plain(v any, hexBytes bool) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, fv := range t {
			out[k] = plain(fv, hexBytes)
		}
		return out
	case []byte:
		if hexBytes {
			return hex.EncodeToString(t)
		}
		return t
	case codec.Unit:
		return nil
	case codec.UnknownVariant:
		return map[string]any{"unknown": t.Index, "payload": plain(t.Payload, hexBytes)}
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case uuid.UUID:
		return t.String()
	case ksuid.KSUID:
		return t.String()
	default:
		return v
	}
}

func mismatch(path []string, v any, want string) error {
	return errors.TypeMismatch(errors.PhaseEncode, path, jsonType(v), want)
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func extend(path []string, elem string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}
