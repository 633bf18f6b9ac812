package sema

import (
	"quill/internal/types"
)

// methodSig describes one builtin method on a container or scalar value.
type methodSig struct {
	Params []types.TypeID
	Ret    types.TypeID
}

// methodOn resolves a builtin method on a receiver type. The table covers
// the runtime surface of the builtin containers; user types have fields
// only.
func (s *Sema) methodOn(recv types.TypeID, name string) (*methodSig, bool) {
	in := s.types
	t := in.Get(in.Base(recv))
	switch t.Kind {
	case types.KindScalar:
		switch t.Scalar {
		case types.ScalarString, types.ScalarHtml, types.ScalarEmail, types.ScalarId:
			switch name {
			case "len":
				return &methodSig{Ret: in.Int}, true
			case "upper", "lower", "trim":
				return &methodSig{Ret: in.String}, true
			case "contains", "starts_with", "ends_with":
				return &methodSig{Params: []types.TypeID{in.String}, Ret: in.Bool}, true
			case "split":
				return &methodSig{Params: []types.TypeID{in.String}, Ret: in.List(in.String)}, true
			}
		case types.ScalarInt, types.ScalarFloat, types.ScalarBool:
			if name == "to_string" {
				return &methodSig{Ret: in.String}, true
			}
		}
	case types.KindList:
		switch name {
		case "len":
			return &methodSig{Ret: in.Int}, true
		case "push":
			return &methodSig{Params: []types.TypeID{t.Elem}, Ret: in.Unit}, true
		case "pop", "first", "last":
			return &methodSig{Ret: in.Option(t.Elem)}, true
		case "contains":
			return &methodSig{Params: []types.TypeID{t.Elem}, Ret: in.Bool}, true
		}
	case types.KindMap:
		switch name {
		case "len":
			return &methodSig{Ret: in.Int}, true
		case "has":
			return &methodSig{Params: []types.TypeID{in.String}, Ret: in.Bool}, true
		case "set":
			return &methodSig{Params: []types.TypeID{in.String, t.Elem}, Ret: in.Unit}, true
		case "remove":
			return &methodSig{Params: []types.TypeID{in.String}, Ret: in.Unit}, true
		case "keys":
			return &methodSig{Ret: in.List(in.String)}, true
		case "values":
			return &methodSig{Ret: in.List(t.Elem)}, true
		}
	case types.KindOption:
		switch name {
		case "is_some", "is_none":
			return &methodSig{Ret: in.Bool}, true
		case "unwrap_or":
			return &methodSig{Params: []types.TypeID{t.Elem}, Ret: t.Elem}, true
		}
	case types.KindResult:
		switch name {
		case "is_ok", "is_err":
			return &methodSig{Ret: in.Bool}, true
		case "unwrap_or":
			return &methodSig{Params: []types.TypeID{t.Elem}, Ret: t.Elem}, true
		}
	}
	return nil, false
}
