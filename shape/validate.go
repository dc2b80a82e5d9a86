package shape

import (
	"strconv"

	"github.com/wippyai/spac/errors"
)

// Validate checks s and every shape reachable from it: records and unions
// are named, field names are unique and never reuse a deprecated name,
// alternative names are unique, deprecated positions exist and integer
// bounds are ordered. Shared definitions are checked once.
func Validate(s Shape) error {
	return validate(s, nil, map[Shape]bool{})
}

func validate(s Shape, path []string, seen map[Shape]bool) error {
	switch t := s.(type) {
	case nil:
		return errors.InvalidShape(path, "nil shape")

	case Void, Bool, String, Bytes, Unknown:
		return nil

	case Integer:
		if t.HasMin && t.HasMax && t.Min > t.Max {
			return errors.InvalidShape(path, "integer minimum "+strconv.FormatInt(t.Min, 10)+
				" exceeds maximum "+strconv.FormatInt(t.Max, 10))
		}
		return nil

	case *Record:
		if seen[t] {
			return nil
		}
		seen[t] = true
		return validateRecord(t, path, seen)

	case *Union:
		if seen[t] {
			return nil
		}
		seen[t] = true
		return validateUnion(t, path, seen)

	default:
		return errors.InvalidShape(path, "unknown shape case")
	}
}

func validateRecord(r *Record, path []string, seen map[Shape]bool) error {
	if r.Name == "" {
		return errors.InvalidShape(path, "record without a name")
	}
	path = append(append([]string{}, path...), r.Name)

	reserved := make(map[string]bool, len(r.Deprecated))
	for _, name := range r.Deprecated {
		reserved[name] = true
	}

	names := make(map[string]bool, len(r.Fields))
	for _, f := range r.Fields {
		if f.Name == "" {
			return errors.InvalidShape(path, "field without a name")
		}
		if names[f.Name] {
			return errors.InvalidShape(path, "duplicate field "+strconv.Quote(f.Name))
		}
		if reserved[f.Name] {
			return errors.InvalidShape(path, "field "+strconv.Quote(f.Name)+" reuses a deprecated name")
		}
		names[f.Name] = true

		if err := validate(f.Shape, append(append([]string{}, path...), f.Name), seen); err != nil {
			return err
		}
	}
	return nil
}

func validateUnion(u *Union, path []string, seen map[Shape]bool) error {
	if u.Name == "" {
		return errors.InvalidShape(path, "union without a name")
	}
	path = append(append([]string{}, path...), u.Name)

	for _, d := range u.Deprecated {
		if d < 0 || d >= len(u.Alternatives) {
			return errors.InvalidShape(path, "deprecated alternative "+strconv.Itoa(d)+" does not exist")
		}
	}

	names := make(map[string]bool, len(u.Alternatives))
	for i, a := range u.Alternatives {
		if a.Name != "" {
			if names[a.Name] {
				return errors.InvalidShape(path, "duplicate alternative "+strconv.Quote(a.Name))
			}
			names[a.Name] = true
		}
		if err := validate(a.Shape, append(append([]string{}, path...), u.Label(i)), seen); err != nil {
			return err
		}
	}
	return nil
}
