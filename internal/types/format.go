package types

import (
	"fmt"
	"strconv"
	"strings"

	"quill/internal/source"
)

// Format renders id for diagnostics, resolving nominal names through the
// shared string interner.
func (in *Interner) Format(id TypeID, names *source.Interner) string {
	t := in.Get(id)
	switch t.Kind {
	case KindInvalid:
		return "<error>"
	case KindUnit:
		return "Unit"
	case KindScalar:
		return t.Scalar.String()
	case KindList:
		return "List<" + in.Format(t.Elem, names) + ">"
	case KindMap:
		return "Map<" + in.Format(t.Key, names) + ", " + in.Format(t.Elem, names) + ">"
	case KindOption:
		return in.Format(t.Elem, names) + "?"
	case KindResult:
		err := in.Get(t.Err)
		if err.Kind == KindScalar && err.Scalar == ScalarError {
			return in.Format(t.Elem, names) + "!"
		}
		return in.Format(t.Elem, names) + "!" + in.Format(t.Err, names)
	case KindTask:
		return "Task<" + in.Format(t.Elem, names) + ">"
	case KindNominal:
		name := lookupName(names, t.Name)
		if t.Module != source.NoStringID {
			return lookupName(names, t.Module) + "." + name
		}
		return name
	case KindRefined:
		return fmt.Sprintf("%s(%s..%s)", t.Scalar, formatBound(t.Lo), formatBound(t.Hi))
	}
	return "<?>"
}

func lookupName(names *source.Interner, id source.StringID) string {
	if names == nil {
		return "?"
	}
	s, ok := names.Lookup(id)
	if !ok {
		return "?"
	}
	return s
}

func formatBound(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
