package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/spac"
	"github.com/wippyai/spac/codec"
)

var (
	offsetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	bytesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))
)

// maxShownBytes caps the hex dump printed next to one span.
const maxShownBytes = 16

// renderSpans prints one line per decoded value: its byte range, its
// position in the value tree and the bytes it was read from.
func renderSpans(buf []byte, spans []codec.Span, rootName string) string {
	var b strings.Builder
	for _, sp := range spans {
		name := rootName
		if len(sp.Path) > 0 {
			name = sp.Path[len(sp.Path)-1]
		}
		if name == "" {
			name = "(root)"
		}
		b.WriteString(offsetStyle.Render(fmt.Sprintf("%-12s", spanRange(sp))))
		b.WriteString(strings.Repeat("  ", len(sp.Path)))
		b.WriteString(nameStyle.Render(name))
		b.WriteString(" ")
		b.WriteString(kindStyle.Render(sp.Shape))
		if dump := spanBytes(buf, sp); dump != "" {
			b.WriteString(" ")
			b.WriteString(bytesStyle.Render(dump))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func spanRange(sp codec.Span) string {
	return cursorString(sp.Start) + ".." + cursorString(sp.End)
}

func cursorString(c spac.Cursor) string {
	if c.Bit == 0 {
		return fmt.Sprint(c.Byte)
	}
	return fmt.Sprintf("%d.%d", c.Byte, c.Bit)
}

// spanBytes dumps the whole bytes a span covers. Bit-level spans show the
// bit value instead.
func spanBytes(buf []byte, sp codec.Span) string {
	if sp.Start.Byte == sp.End.Byte && sp.Start.Bit == sp.End.Bit {
		return ""
	}
	if sp.Shape == "bool" {
		if sp.Start.Byte < len(buf) {
			return fmt.Sprintf("bit %d", buf[sp.Start.Byte]>>sp.Start.Bit&1)
		}
		return ""
	}
	end := min(sp.End.Aligned().Byte, len(buf))
	if end <= sp.Start.Byte {
		return ""
	}
	raw := buf[sp.Start.Byte:end]
	if len(raw) > maxShownBytes {
		return hex.EncodeToString(raw[:maxShownBytes]) + "…"
	}
	return hex.EncodeToString(raw)
}
