package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"

	"github.com/wippyai/spac"
	"github.com/wippyai/spac/codec"
	"github.com/wippyai/spac/internal/config"
	"github.com/wippyai/spac/shape"
	"github.com/wippyai/spac/witschema"
)

// session holds the imported schema and, once a root type is chosen, the
// codec bound for it.
type session struct {
	cfg    *config.Config
	shapes map[string]shape.Shape
	root   shape.Shape
	codec  *codec.Codec
}

func openSchema(cfg *config.Config) (*session, error) {
	shapes := map[string]shape.Shape{}
	if cfg.Schema != "" {
		var err error
		shapes, err = witschema.Load(cfg.Schema)
		if err != nil {
			return nil, err
		}
	}
	return &session{cfg: cfg, shapes: shapes}, nil
}

func openSession(cfg *config.Config) (*session, error) {
	s, err := openSchema(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.bind(); err != nil {
		return nil, err
	}
	return s, nil
}

// bind resolves the configured root type, first among the imported
// shapes and then as a WIT primitive, and binds it.
func (s *session) bind() error {
	if s.cfg.Type == "" {
		return fmt.Errorf("no root type: set --type or type in the config")
	}
	root, ok := s.shapes[s.cfg.Type]
	if !ok {
		var err error
		root, err = witschema.Parse(s.cfg.Type)
		if err != nil {
			return fmt.Errorf("type %q is not in the schema and is not a WIT primitive", s.cfg.Type)
		}
	}
	mem, err := s.cfg.Mem(root)
	if err != nil {
		return err
	}
	c, err := codec.NewRegistry().Bind(root, mem, nil)
	if err != nil {
		return err
	}
	s.root = root
	s.codec = c
	return nil
}

var (
	nameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#98FB98"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))
)

func (s *session) printTypes(w io.Writer) error {
	if len(s.shapes) == 0 {
		fmt.Fprintln(w, "no named types; set --schema")
		return nil
	}
	for _, name := range witschema.Names(s.shapes) {
		fmt.Fprintf(w, "%s %s\n", nameStyle.Render(name), kindStyle.Render(s.shapes[name].String()))
	}
	return nil
}

func (s *session) inspect(w io.Writer, data []byte) error {
	v, spans, err := s.codec.Inspect(data, spac.Cursor{})
	if len(spans) > 0 {
		fmt.Fprint(w, renderSpans(data, spans, s.codec.Name()))
	}
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(plain(v, true), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s\n", out)
	return nil
}

func (s *session) encode(w io.Writer, v any) error {
	data, err := s.codec.Marshal(v)
	if err != nil {
		return err
	}
	return writePayload(w, data, s.cfg.Format)
}

// cborMode uses Core Deterministic Encoding so sizes are reproducible.
var cborMode cbor.EncMode

func init() {
	var err error
	cborMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("spac: CBOR encoder initialization failed: " + err.Error())
	}
}

// size compares the packed length of v with its deterministic CBOR
// encoding.
func (s *session) size(w io.Writer, v any) error {
	n, err := s.codec.Length(v)
	if err != nil {
		return err
	}
	alt, err := cborMode.Marshal(plain(v, false))
	if err != nil {
		return fmt.Errorf("cbor: %w", err)
	}
	fmt.Fprintf(w, "spac: %d bytes\ncbor: %d bytes\n", n, len(alt))
	if len(alt) > 0 {
		fmt.Fprintf(w, "ratio: %.2f\n", float64(n)/float64(len(alt)))
	}
	return nil
}

// readValue reads a JSON or JSONC document and converts it to the root
// type's memory form.
func (s *session) readValue(arg string, stdin io.Reader) (any, error) {
	var (
		src []byte
		err error
	)
	if arg == "-" {
		src, err = io.ReadAll(stdin)
	} else {
		src, err = os.ReadFile(arg)
	}
	if err != nil {
		return nil, fmt.Errorf("read value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(src)))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse value: %w", err)
	}
	return fromJSON(s.cfg, s.root, doc, nil)
}

// readInput returns the payload text: stdin for "-", a file for "@path",
// the argument itself otherwise.
func readInput(arg string, stdin io.Reader) ([]byte, error) {
	switch {
	case arg == "-":
		return io.ReadAll(stdin)
	case strings.HasPrefix(arg, "@"):
		return os.ReadFile(arg[1:])
	default:
		return []byte(arg), nil
	}
}

func parsePayload(text []byte, format string) ([]byte, error) {
	switch format {
	case config.FormatRaw:
		return text, nil
	case config.FormatBase64:
		return base64.StdEncoding.DecodeString(strings.TrimSpace(string(text)))
	default:
		clean := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, string(text))
		return hex.DecodeString(clean)
	}
}

func writePayload(w io.Writer, data []byte, format string) error {
	var err error
	switch format {
	case config.FormatRaw:
		_, err = w.Write(data)
	case config.FormatBase64:
		_, err = fmt.Fprintln(w, base64.StdEncoding.EncodeToString(data))
	default:
		_, err = fmt.Fprintln(w, hex.EncodeToString(data))
	}
	return err
}
