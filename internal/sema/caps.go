package sema

import (
	"sort"
	"strings"

	"quill/internal/diag"
	"quill/internal/resolver"
	"quill/internal/source"
	"quill/internal/types"
)

// CapSet is a bitmask of privileged builtin categories.
type CapSet uint8

const (
	CapDatabase CapSet = 1 << iota
	CapCrypto
	CapNetwork
	CapTime
)

var capNames = []struct {
	cap  CapSet
	name string
}{
	{CapDatabase, "database"},
	{CapCrypto, "crypto"},
	{CapNetwork, "network"},
	{CapTime, "time"},
}

// CapByName maps a capability name to its bit.
func CapByName(name string) (CapSet, bool) {
	for _, c := range capNames {
		if c.name == name {
			return c.cap, true
		}
	}
	return 0, false
}

// Has reports whether c covers all bits of other.
func (c CapSet) Has(other CapSet) bool {
	return c&other == other
}

// Names returns the set's capability names, sorted.
func (c CapSet) Names() []string {
	var out []string
	for _, entry := range capNames {
		if c&entry.cap != 0 {
			out = append(out, entry.name)
		}
	}
	sort.Strings(out)
	return out
}

func (c CapSet) String() string {
	if c == 0 {
		return "none"
	}
	return strings.Join(c.Names(), ", ")
}

// Builtin is a free function the runtime provides. Caps tags the
// privileged categories the call exercises.
type Builtin struct {
	Name   string
	Params []types.TypeID
	Ret    types.TypeID
	Caps   CapSet
}

// builtinTable instantiates the builtin signatures against an interner.
func builtinTable(in *types.Interner) map[string]*Builtin {
	stringRow := in.Map(in.String, in.String)
	table := []*Builtin{
		{Name: "print", Params: []types.TypeID{in.String}, Ret: in.Unit},
		{Name: "make_id", Ret: in.Id},
		{Name: "parse_int", Params: []types.TypeID{in.String}, Ret: in.Option(in.Int)},
		{Name: "parse_float", Params: []types.TypeID{in.String}, Ret: in.Option(in.Float)},

		{Name: "now", Ret: in.Int, Caps: CapTime},
		{Name: "today", Ret: in.String, Caps: CapTime},
		{Name: "sleep", Params: []types.TypeID{in.Int}, Ret: in.Unit, Caps: CapTime},

		{Name: "db_query", Params: []types.TypeID{in.String}, Ret: in.Result(in.List(stringRow), in.Error), Caps: CapDatabase},
		{Name: "db_execute", Params: []types.TypeID{in.String}, Ret: in.Result(in.Int, in.Error), Caps: CapDatabase},

		{Name: "hash_password", Params: []types.TypeID{in.String}, Ret: in.String, Caps: CapCrypto},
		{Name: "verify_password", Params: []types.TypeID{in.String, in.String}, Ret: in.Bool, Caps: CapCrypto},
		{Name: "random_token", Ret: in.String, Caps: CapCrypto},

		{Name: "http_get", Params: []types.TypeID{in.String}, Ret: in.Result(in.String, in.Error), Caps: CapNetwork},
		{Name: "http_post", Params: []types.TypeID{in.String, in.String}, Ret: in.Result(in.String, in.Error), Caps: CapNetwork},
		{Name: "send_email", Params: []types.TypeID{in.Email, in.String, in.String}, Ret: in.Result(in.Unit, in.Error), Caps: CapNetwork},
	}
	byName := make(map[string]*Builtin, len(table))
	for _, b := range table {
		byName[b.Name] = b
	}
	return byName
}

// capUse records a direct capability requirement inside one function.
type capUse struct {
	cap  CapSet
	span source.Span
	what string
}

// useCap tags the function currently being checked.
func (s *Sema) useCap(bits CapSet, sp source.Span, what string) {
	if bits == 0 || s.curFn == nil {
		return
	}
	s.out.FnCaps[s.curFn] |= bits
	s.capUses[s.curFn] = append(s.capUses[s.curFn], capUse{cap: bits, span: sp, what: what})
}

// addCallEdge records a call from the current function to callee for the
// transitive capability closure.
func (s *Sema) addCallEdge(callee *resolver.Symbol) {
	if s.curFn == nil || callee == nil {
		return
	}
	s.callEdges[s.curFn] = append(s.callEdges[s.curFn], callee)
}

// moduleCaps folds a module's requires declarations into one set; unknown
// capability names are reported once where declared.
func (s *Sema) moduleCaps(m *resolver.Module) CapSet {
	var caps CapSet
	for _, req := range m.Requires {
		bit, ok := CapByName(s.name(req.Name))
		if !ok {
			s.report(diag.TypCapabilityViolation, req.Span,
				"unknown capability %q", s.name(req.Name))
			continue
		}
		caps |= bit
	}
	return caps
}

// checkCapabilities closes FnCaps over the call graph, then verifies each
// function's set against its module's requires declarations.
func (s *Sema) checkCapabilities() {
	// Fixpoint over call edges. The graph is small; quadratic rounds are
	// fine and dodge an explicit SCC pass.
	for changed := true; changed; {
		changed = false
		for caller, callees := range s.callEdges {
			for _, callee := range callees {
				missing := s.out.FnCaps[callee] &^ s.out.FnCaps[caller]
				if missing != 0 {
					s.out.FnCaps[caller] |= missing
					changed = true
				}
			}
		}
	}

	for _, m := range s.res.Modules {
		declared := s.moduleCaps(m)
		check := func(sym *resolver.Symbol) {
			missing := s.out.FnCaps[sym] &^ declared
			if missing == 0 {
				return
			}
			var notes []diag.Note
			for _, use := range s.capUses[sym] {
				if use.cap&missing != 0 {
					notes = append(notes, diag.Note{Span: use.span, Msg: use.what + " needs " + use.cap.String()})
				}
			}
			if notes == nil {
				for _, callee := range s.callEdges[sym] {
					if s.out.FnCaps[callee]&missing != 0 {
						notes = append(notes, diag.Note{
							Span: callee.Span,
							Msg:  "calls " + s.name(callee.Name) + ", which needs " + (s.out.FnCaps[callee] & missing).String(),
						})
						break
					}
				}
			}
			s.out.Excluded[sym] = true
			s.reportNoted(diag.TypCapabilityViolation, sym.Span, notes,
				"function %q uses capability %s the module does not declare; add `requires %s`",
				s.name(sym.Name), missing, strings.Join(missing.Names(), ", "))
		}
		for _, sym := range m.Order {
			switch sym.Kind {
			case resolver.SymFn:
				check(sym)
			case resolver.SymService, resolver.SymApp:
				for _, member := range s.sortedMembers(sym) {
					check(member)
				}
			}
		}
	}
}

// sortedMembers returns a service or app's member fns in name order so
// diagnostics are deterministic.
func (s *Sema) sortedMembers(group *resolver.Symbol) []*resolver.Symbol {
	members := s.out.Members[group]
	out := make([]*resolver.Symbol, 0, len(members))
	for _, sym := range members {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.name(out[i].Name) < s.name(out[j].Name)
	})
	return out
}
