package types

import (
	"fortio.org/safecast"

	"quill/internal/source"
)

// Interner deduplicates types; equal types get equal IDs, so equality
// checks are ID comparisons. Not safe for concurrent use: checking runs
// single-threaded after the parallel parse phase.
type Interner struct {
	byID  []Type
	index map[Type]TypeID

	// Pre-interned singletons.
	Invalid TypeID
	Unit    TypeID
	Int     TypeID
	Float   TypeID
	Bool    TypeID
	String  TypeID
	Bytes   TypeID
	Html    TypeID
	Id      TypeID
	Email   TypeID
	Error   TypeID
}

func NewInterner() *Interner {
	in := &Interner{
		byID:  make([]Type, 0, 1<<8),
		index: make(map[Type]TypeID, 1<<8),
	}
	in.Invalid = in.Intern(Type{Kind: KindInvalid})
	in.Unit = in.Intern(Type{Kind: KindUnit})
	in.Int = in.Intern(Type{Kind: KindScalar, Scalar: ScalarInt})
	in.Float = in.Intern(Type{Kind: KindScalar, Scalar: ScalarFloat})
	in.Bool = in.Intern(Type{Kind: KindScalar, Scalar: ScalarBool})
	in.String = in.Intern(Type{Kind: KindScalar, Scalar: ScalarString})
	in.Bytes = in.Intern(Type{Kind: KindScalar, Scalar: ScalarBytes})
	in.Html = in.Intern(Type{Kind: KindScalar, Scalar: ScalarHtml})
	in.Id = in.Intern(Type{Kind: KindScalar, Scalar: ScalarId})
	in.Email = in.Intern(Type{Kind: KindScalar, Scalar: ScalarEmail})
	in.Error = in.Intern(Type{Kind: KindScalar, Scalar: ScalarError})
	return in
}

// Intern returns the ID for t, allocating one on first sight.
func (in *Interner) Intern(t Type) TypeID {
	if id, ok := in.index[t]; ok {
		return id
	}
	in.byID = append(in.byID, t)
	n, err := safecast.Conv[uint32](len(in.byID))
	if err != nil {
		panic(err)
	}
	id := TypeID(n)
	in.index[t] = id
	return id
}

// Get returns the type for id; NoTypeID yields the invalid type.
func (in *Interner) Get(id TypeID) Type {
	if id == NoTypeID {
		return Type{Kind: KindInvalid}
	}
	return in.byID[id-1]
}

// Kind returns the kind for id.
func (in *Interner) Kind(id TypeID) Kind {
	return in.Get(id).Kind
}

// ScalarByName maps a built-in scalar name to its pre-interned ID.
func (in *Interner) ScalarByName(name string) (TypeID, bool) {
	switch name {
	case "Int":
		return in.Int, true
	case "Float":
		return in.Float, true
	case "Bool":
		return in.Bool, true
	case "String":
		return in.String, true
	case "Bytes":
		return in.Bytes, true
	case "Html":
		return in.Html, true
	case "Id":
		return in.Id, true
	case "Email":
		return in.Email, true
	case "Error":
		return in.Error, true
	default:
		return NoTypeID, false
	}
}

// List interns List<elem>.
func (in *Interner) List(elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindList, Elem: elem})
}

// Map interns Map<key, value>. Key validity is the caller's check.
func (in *Interner) Map(key, value TypeID) TypeID {
	return in.Intern(Type{Kind: KindMap, Key: key, Elem: value})
}

// Option interns Option<elem>. Option never nests: Option<Option<T>>
// collapses to Option<T>, so `??` layering stays single-level.
func (in *Interner) Option(elem TypeID) TypeID {
	if in.Kind(elem) == KindOption {
		return elem
	}
	return in.Intern(Type{Kind: KindOption, Elem: elem})
}

// Result interns Result<ok, err>.
func (in *Interner) Result(ok, err TypeID) TypeID {
	return in.Intern(Type{Kind: KindResult, Elem: ok, Err: err})
}

// Task interns the type of a spawn block producing elem.
func (in *Interner) Task(elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindTask, Elem: elem})
}

// Nominal interns a user type identified by (module, name). Two
// declarations with the same name in different modules stay distinct.
func (in *Interner) Nominal(module, name source.StringID) TypeID {
	return in.Intern(Type{Kind: KindNominal, Module: module, Name: name})
}

// Refined interns base(lo..hi) with inclusive bounds.
func (in *Interner) Refined(base Scalar, lo, hi float64) TypeID {
	return in.Intern(Type{Kind: KindRefined, Scalar: base, Lo: lo, Hi: hi})
}

// Base strips a refinement down to its scalar base; other types pass
// through.
func (in *Interner) Base(id TypeID) TypeID {
	t := in.Get(id)
	if t.Kind != KindRefined {
		return id
	}
	return in.Intern(Type{Kind: KindScalar, Scalar: t.Scalar})
}

// Len returns the number of interned types.
func (in *Interner) Len() int {
	return len(in.byID)
}
