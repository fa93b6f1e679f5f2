package format

import (
	"bytes"
	"io"
	"sort"
	"strconv"
	"strings"
)

// WriteEDN writes v as EDN. Structs are converted through their json tags and
// object keys become keywords.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	x, err := toGeneric(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	e := ednWriter{buf: &buf, pretty: pretty}
	e.value(x, 0)
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

type ednWriter struct {
	buf    *bytes.Buffer
	pretty bool
}

func (e ednWriter) value(v any, depth int) {
	switch t := v.(type) {
	case nil:
		e.buf.WriteString("nil")
	case bool:
		e.buf.WriteString(strconv.FormatBool(t))
	case string:
		e.buf.WriteString(strconv.Quote(t))
	case float64:
		if t == float64(int64(t)) {
			e.buf.WriteString(strconv.FormatInt(int64(t), 10))
		} else {
			e.buf.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
		}
	case []any:
		e.open('[', len(t) == 0)
		for i, el := range t {
			e.sep(i, depth+1)
			e.value(el, depth+1)
		}
		e.close(']', len(t) == 0, depth)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		e.open('{', len(keys) == 0)
		for i, k := range keys {
			e.sep(i, depth+1)
			e.buf.WriteByte(':')
			e.buf.WriteString(strings.ReplaceAll(strings.TrimSpace(k), " ", "-"))
			e.buf.WriteByte(' ')
			e.value(t[k], depth+1)
		}
		e.close('}', len(keys) == 0, depth)
	}
}

func (e ednWriter) open(c byte, empty bool) {
	e.buf.WriteByte(c)
	if e.pretty && !empty {
		e.buf.WriteByte('\n')
	}
}

func (e ednWriter) sep(i, depth int) {
	switch {
	case e.pretty && i > 0:
		e.buf.WriteByte('\n')
		fallthrough
	case e.pretty:
		e.buf.WriteString(strings.Repeat("  ", depth))
	case i > 0:
		e.buf.WriteByte(' ')
	}
}

func (e ednWriter) close(c byte, empty bool, depth int) {
	if e.pretty && !empty {
		e.buf.WriteByte('\n')
		e.buf.WriteString(strings.Repeat("  ", depth))
	}
	e.buf.WriteByte(c)
}
