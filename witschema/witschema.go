package witschema

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/spac/errors"
	"github.com/wippyai/spac/shape"
)

// Importer converts WIT types to shapes. It caches one shape per typedef;
// reuse an Importer for every type of one resolve so shared typedefs stay
// shared. An Importer is not safe for concurrent use.
type Importer struct {
	cache map[*wit.TypeDef]shape.Shape
	names map[string]*wit.TypeDef
}

// NewImporter returns an empty importer.
func NewImporter() *Importer {
	return &Importer{
		cache: make(map[*wit.TypeDef]shape.Shape),
		names: make(map[string]*wit.TypeDef),
	}
}

// Shape converts t. name is used for t itself when it is an anonymous
// record, tuple or union.
func (im *Importer) Shape(t wit.Type, name string) (shape.Shape, error) {
	return im.convert(t, []string{name})
}

func (im *Importer) convert(t wit.Type, path []string) (shape.Shape, error) {
	switch t := t.(type) {
	case wit.Bool:
		return shape.Bool{}, nil
	case wit.U8:
		return shape.IntRange(0, math.MaxUint8), nil
	case wit.U16:
		return shape.IntRange(0, math.MaxUint16), nil
	case wit.U32:
		return shape.IntRange(0, math.MaxUint32), nil
	case wit.U64:
		return shape.UInt(), nil
	case wit.S8:
		return shape.IntRange(math.MinInt8, math.MaxInt8), nil
	case wit.S16:
		return shape.IntRange(math.MinInt16, math.MaxInt16), nil
	case wit.S32:
		return shape.IntRange(math.MinInt32, math.MaxInt32), nil
	case wit.S64:
		return shape.Int(), nil
	case wit.Char:
		return shape.IntRange(0, 0x10FFFF), nil
	case wit.String:
		return shape.String{}, nil
	case *wit.TypeDef:
		return im.typeDef(t, path)
	default:
		return nil, unsupported(path, "WIT type %T", t)
	}
}

func (im *Importer) typeDef(td *wit.TypeDef, path []string) (shape.Shape, error) {
	if s, ok := im.cache[td]; ok {
		return s, nil
	}

	// Aliases and lists never become named shapes of their own.
	switch kind := td.Kind.(type) {
	case *wit.List:
		if _, ok := kind.Type.(wit.U8); ok {
			return shape.Bytes{}, nil
		}
		return nil, unsupported(path, "list<%s>", witName(kind.Type))
	case wit.Type:
		return im.convert(kind, path)
	}

	name := im.name(td, path)
	if td.Name != nil {
		path = []string{name}
	}

	var (
		s   shape.Shape
		err error
	)
	switch kind := td.Kind.(type) {
	case *wit.Record:
		s, err = im.record(name, kind, path)
	case *wit.Tuple:
		s, err = im.tuple(name, kind, path)
	case *wit.Variant:
		s, err = im.variant(name, kind, path)
	case *wit.Enum:
		alts := make([]shape.Alternative, len(kind.Cases))
		for i, c := range kind.Cases {
			alts[i] = shape.Alt(c.Name, shape.Void{})
		}
		s = shape.NewTaggedUnion(name, alts...)
	case *wit.Option:
		var some shape.Shape
		some, err = im.convert(kind.Type, extend(path, "some"))
		if err == nil {
			s = shape.NewTaggedUnion(name, shape.Alt("none", shape.Void{}), shape.Alt("some", some))
		}
	case *wit.Result:
		s, err = im.result(name, kind, path)
	default:
		err = unsupported(path, "%T", kind)
	}
	if err != nil {
		delete(im.names, name)
		return nil, err
	}

	im.cache[td] = s
	Logger().Debug("imported type",
		zap.String("name", name),
		zap.Stringer("kind", s.Kind()))
	return s, nil
}

func (im *Importer) record(name string, r *wit.Record, path []string) (shape.Shape, error) {
	fields := make([]shape.Field, len(r.Fields))
	for i, f := range r.Fields {
		fs, err := im.convert(f.Type, extend(path, f.Name))
		if err != nil {
			return nil, err
		}
		fields[i] = shape.F(f.Name, fs)
	}
	return shape.NewRecord(name, fields...), nil
}

func (im *Importer) tuple(name string, t *wit.Tuple, path []string) (shape.Shape, error) {
	fields := make([]shape.Field, len(t.Types))
	for i, elem := range t.Types {
		label := strconv.Itoa(i)
		fs, err := im.convert(elem, extend(path, label))
		if err != nil {
			return nil, err
		}
		fields[i] = shape.F(label, fs)
	}
	return shape.NewRecord(name, fields...), nil
}

func (im *Importer) variant(name string, v *wit.Variant, path []string) (shape.Shape, error) {
	alts := make([]shape.Alternative, len(v.Cases))
	for i, c := range v.Cases {
		payload, err := im.payload(c.Type, extend(path, c.Name))
		if err != nil {
			return nil, err
		}
		alts[i] = shape.Alt(c.Name, payload)
	}
	return shape.NewTaggedUnion(name, alts...), nil
}

func (im *Importer) result(name string, r *wit.Result, path []string) (shape.Shape, error) {
	ok, err := im.payload(r.OK, extend(path, "ok"))
	if err != nil {
		return nil, err
	}
	fail, err := im.payload(r.Err, extend(path, "err"))
	if err != nil {
		return nil, err
	}
	return shape.NewTaggedUnion(name, shape.Alt("ok", ok), shape.Alt("err", fail)), nil
}

func (im *Importer) payload(t wit.Type, path []string) (shape.Shape, error) {
	if t == nil {
		return shape.Void{}, nil
	}
	return im.convert(t, path)
}

// name picks the shape name for td. A named typedef keeps its WIT name
// unless another typedef already claimed it; then the owning interface or
// world qualifies it, and a numeric suffix settles what is still taken.
func (im *Importer) name(td *wit.TypeDef, path []string) string {
	name := strings.Join(path, ".")
	if td.Name != nil {
		name = *td.Name
	}
	if im.taken(name, td) {
		if owner := ownerName(td); owner != "" {
			name = owner + "." + name
		}
		for base, i := name, 2; im.taken(name, td); i++ {
			name = base + "_" + strconv.Itoa(i)
		}
	}
	im.names[name] = td
	return name
}

func (im *Importer) taken(name string, td *wit.TypeDef) bool {
	other, ok := im.names[name]
	return ok && other != td
}

func ownerName(td *wit.TypeDef) string {
	switch o := td.Owner.(type) {
	case *wit.Interface:
		if o.Name != nil {
			return *o.Name
		}
	case *wit.World:
		return o.Name
	}
	return ""
}

// FromResolve imports every named record, tuple, variant, enum, option and
// result typedef of res, keyed by shape name. Named aliases of those types
// are included under the alias name.
func FromResolve(res *wit.Resolve) (map[string]shape.Shape, error) {
	im := NewImporter()
	out := make(map[string]shape.Shape)
	for _, td := range res.TypeDefs {
		if td.Name == nil {
			continue
		}
		if _, ok := td.Kind.(*wit.List); ok {
			continue
		}
		s, err := im.typeDef(td, []string{*td.Name})
		if isUnsupported(err) {
			Logger().Debug("skipping type", zap.String("name", *td.Name), zap.Error(err))
			continue
		}
		if err != nil {
			return nil, err
		}
		switch s := s.(type) {
		case *shape.Record:
			out[im.key(s.Name, td)] = s
		case *shape.Union:
			out[im.key(s.Name, td)] = s
		}
	}
	return out, nil
}

// key is the shape name td was imported under, or the alias name when td
// only points at another typedef's shape.
func (im *Importer) key(shapeName string, td *wit.TypeDef) string {
	if im.names[shapeName] == td {
		return shapeName
	}
	return *td.Name
}

// Load reads a WIT package: JSON as produced by "wasm-tools component wit
// --json" when the file ends in .json, WIT source otherwise.
func Load(path string) (map[string]shape.Shape, error) {
	var (
		res *wit.Resolve
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		res, err = wit.LoadJSON(path)
	} else {
		res, err = wit.LoadWIT(path)
	}
	if err != nil {
		return nil, errors.ImportFailed(path, err)
	}
	shapes, err := FromResolve(res)
	if err != nil {
		return nil, err
	}
	Logger().Info("loaded schema",
		zap.String("path", path),
		zap.Int("types", len(shapes)))
	return shapes, nil
}

// Parse converts a WIT primitive type name such as "u32" or "string".
func Parse(expr string) (shape.Shape, error) {
	expr = strings.TrimSpace(expr)
	t, err := wit.ParseType(expr)
	if err != nil {
		return nil, errors.ImportFailed(strconv.Quote(expr), err)
	}
	return NewImporter().Shape(t, expr)
}

// Names returns the keys of shapes in sorted order.
func Names(shapes map[string]shape.Shape) []string {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unsupported(path []string, format string, args ...any) error {
	return errors.New(errors.PhaseImport, errors.KindUnsupported).
		Path(path...).
		Detail("no packed form for "+format, args...).
		Build()
}

func isUnsupported(err error) bool {
	var e *errors.Error
	return errors.As(err, &e) && e.Kind == errors.KindUnsupported
}

func extend(path []string, elem string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

func witName(t wit.Type) string {
	switch t := t.(type) {
	case *wit.TypeDef:
		if t.Name != nil {
			return *t.Name
		}
		return "anonymous type"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.String:
		return "string"
	case wit.Bool:
		return "bool"
	case wit.Char:
		return "char"
	case wit.U8:
		return "u8"
	case wit.U16:
		return "u16"
	case wit.U32:
		return "u32"
	case wit.U64:
		return "u64"
	case wit.S8:
		return "s8"
	case wit.S16:
		return "s16"
	case wit.S32:
		return "s32"
	case wit.S64:
		return "s64"
	default:
		return fmt.Sprintf("%T", t)
	}
}
