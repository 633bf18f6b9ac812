package sema

import (
	"path/filepath"
	"strings"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/resolver"
	"quill/internal/source"
	"quill/internal/types"
)

// moduleName interns a short display name for a module.
func (s *Sema) moduleName(m *resolver.Module) source.StringID {
	base := filepath.Base(m.Path)
	return s.strings.Intern(strings.TrimSuffix(base, filepath.Ext(base)))
}

// collectShells creates the per-symbol info records with their nominal
// types, so field and signature resolution can reference any declaration
// regardless of order.
func (s *Sema) collectShells() {
	if s.out.Members == nil {
		s.out.Members = make(map[*resolver.Symbol]map[source.StringID]*resolver.Symbol)
	}
	for _, m := range s.res.Modules {
		modName := s.moduleName(m)
		for _, sym := range m.Order {
			switch sym.Kind {
			case resolver.SymType, resolver.SymConfig:
				info := &StructInfo{
					Type:   s.types.Nominal(modName, sym.Name),
					byName: make(map[source.StringID]int),
				}
				s.out.Structs[sym] = info
				s.nominals[info.Type] = sym
			case resolver.SymEnum:
				info := &EnumInfo{
					Type:   s.types.Nominal(modName, sym.Name),
					byName: make(map[source.StringID]int),
				}
				s.out.Enums[sym] = info
				s.nominals[info.Type] = sym
			case resolver.SymFn:
				s.out.Fns[sym] = &FnSig{}
			case resolver.SymService, resolver.SymApp:
				members := make(map[source.StringID]*resolver.Symbol)
				s.out.Members[sym] = members
				for _, fnItem := range s.groupFns(m, sym) {
					decl := m.B.Items.Fn(fnItem)
					member := &resolver.Symbol{
						Kind:   resolver.SymFn,
						Name:   decl.Name,
						Module: m.ID,
						Item:   fnItem,
						Span:   m.B.Items.Get(fnItem).Span,
					}
					if _, ok := members[decl.Name]; ok {
						s.report(diag.ResDuplicateName, member.Span,
							"name %q is already declared", s.name(decl.Name))
						continue
					}
					members[decl.Name] = member
					s.out.Fns[member] = &FnSig{}
				}
			}
		}
	}
}

// groupFns returns the fn items of a service or app declaration.
func (s *Sema) groupFns(m *resolver.Module, sym *resolver.Symbol) []ast.ItemID {
	if svc := m.B.Items.Service(sym.Item); svc != nil {
		return svc.Fns
	}
	if app := m.B.Items.App(sym.Item); app != nil {
		return app.Fns
	}
	return nil
}

// resolveDeclTypes fills field lists, variant payloads and signatures.
// Derived types resolve after their bases through resolveStruct.
func (s *Sema) resolveDeclTypes() {
	status := make(map[*resolver.Symbol]uint8) // 0 fresh, 1 resolving, 2 done
	for _, m := range s.res.Modules {
		for _, sym := range m.Order {
			switch sym.Kind {
			case resolver.SymType, resolver.SymConfig:
				s.resolveStruct(m, sym, status)
			case resolver.SymEnum:
				s.resolveEnum(m, sym)
			case resolver.SymFn:
				s.resolveFnSig(m, sym, s.out.Fns[sym])
			case resolver.SymService, resolver.SymApp:
				for _, member := range s.out.Members[sym] {
					s.resolveFnSig(m, member, s.out.Fns[member])
				}
			}
		}
	}
}

func (s *Sema) resolveStruct(m *resolver.Module, sym *resolver.Symbol, status map[*resolver.Symbol]uint8) {
	switch status[sym] {
	case 2:
		return
	case 1:
		s.report(diag.TypValueCycle, sym.Span,
			"type %q derives from itself", s.name(sym.Name))
		s.out.Excluded[sym] = true
		status[sym] = 2
		return
	}
	status[sym] = 1
	defer func() { status[sym] = 2 }()

	info := s.out.Structs[sym]
	var fields []ast.TypeField
	var derived bool
	var baseSyn ast.TypeID
	var without []ast.Capability

	if decl := m.B.Items.Type(sym.Item); decl != nil {
		fields, derived, baseSyn, without = decl.Fields, decl.Derived, decl.Base, decl.Without
	} else if decl := m.B.Items.Config(sym.Item); decl != nil {
		fields = decl.Fields
	}

	if derived {
		s.resolveDerivedStruct(m, sym, info, baseSyn, without, status)
		return
	}
	for _, f := range fields {
		t := s.typeFromSyn(m, f.Type)
		if _, dup := info.byName[f.Name]; dup {
			s.report(diag.TypDuplicateField, f.Span,
				"duplicate field %q", s.name(f.Name))
			continue
		}
		info.byName[f.Name] = len(info.Fields)
		info.Fields = append(info.Fields, FieldInfo{
			Name:       f.Name,
			Type:       t,
			Default:    f.Default,
			HasDefault: f.Default.IsValid(),
			Span:       f.Span,
		})
	}
}

// resolveDerivedStruct copies the base's fields minus the removed names,
// preserving order and defaults.
func (s *Sema) resolveDerivedStruct(m *resolver.Module, sym *resolver.Symbol, info *StructInfo,
	baseSyn ast.TypeID, without []ast.Capability, status map[*resolver.Symbol]uint8) {
	baseSym := s.resolveTypeName(m, baseSyn)
	if baseSym == nil {
		s.report(diag.TypUnknownType, m.B.Types.Get(baseSyn).Span,
			"unknown derivation base type")
		s.out.Excluded[sym] = true
		return
	}
	baseInfo, ok := s.out.Structs[baseSym]
	if !ok {
		s.report(diag.TypUnknownType, m.B.Types.Get(baseSyn).Span,
			"derivation base %q is not a struct type", s.name(baseSym.Name))
		s.out.Excluded[sym] = true
		return
	}
	baseModule := s.res.Module(baseSym.Module)
	s.resolveStruct(baseModule, baseSym, status)

	removed := make(map[source.StringID]bool, len(without))
	for _, w := range without {
		if _, ok := baseInfo.Field(w.Name); !ok {
			s.report(diag.TypUnknownField, w.Span,
				"type %q has no field %q", s.name(baseSym.Name), s.name(w.Name))
			continue
		}
		removed[w.Name] = true
	}
	for _, f := range baseInfo.Fields {
		if removed[f.Name] {
			continue
		}
		info.byName[f.Name] = len(info.Fields)
		info.Fields = append(info.Fields, f)
	}
}

func (s *Sema) resolveEnum(m *resolver.Module, sym *resolver.Symbol) {
	decl := m.B.Items.Enum(sym.Item)
	info := s.out.Enums[sym]
	for _, v := range decl.Variants {
		if _, dup := info.byName[v.Name]; dup {
			s.report(diag.TypDuplicateField, v.Span,
				"duplicate variant %q", s.name(v.Name))
			continue
		}
		params := make([]types.TypeID, 0, len(v.Payload))
		for _, pt := range v.Payload {
			params = append(params, s.typeFromSyn(m, pt))
		}
		info.byName[v.Name] = len(info.Variants)
		info.Variants = append(info.Variants, VariantInfo{Name: v.Name, Params: params, Span: v.Span})
	}
}

func (s *Sema) resolveFnSig(m *resolver.Module, sym *resolver.Symbol, sig *FnSig) {
	decl := m.B.Items.Fn(sym.Item)
	for _, param := range decl.Params {
		t := s.types.Invalid
		if param.Type.IsValid() {
			t = s.typeFromSyn(m, param.Type)
		} else {
			s.report(diag.TypParamTypeRequired, param.Span,
				"parameter %q needs an explicit type", s.name(param.Name))
		}
		sig.Params = append(sig.Params, ParamInfo{Name: param.Name, Type: t, Span: param.Span})
	}
	if decl.Ret.IsValid() {
		sig.Ret = s.typeFromSyn(m, decl.Ret)
	}
	// An absent return type is inferred from the body during checking.
}

// detectValueCycles rejects structs and enums that embed themselves by
// value; containers and Option/Result indirection break cycles.
func (s *Sema) detectValueCycles() {
	const (
		fresh = iota
		visiting
		done
	)
	color := make(map[*resolver.Symbol]uint8)

	var visit func(sym *resolver.Symbol) bool
	edgeTargets := func(sym *resolver.Symbol) []types.TypeID {
		if info, ok := s.out.Structs[sym]; ok {
			out := make([]types.TypeID, 0, len(info.Fields))
			for _, f := range info.Fields {
				out = append(out, f.Type)
			}
			return out
		}
		if info, ok := s.out.Enums[sym]; ok {
			var out []types.TypeID
			for _, v := range info.Variants {
				out = append(out, v.Params...)
			}
			return out
		}
		return nil
	}
	visit = func(sym *resolver.Symbol) bool {
		switch color[sym] {
		case done:
			return false
		case visiting:
			s.report(diag.TypValueCycle, sym.Span,
				"type %q contains itself by value", s.name(sym.Name))
			s.out.Excluded[sym] = true
			return true
		}
		color[sym] = visiting
		for _, t := range edgeTargets(sym) {
			target, ok := s.nominals[t]
			if !ok {
				continue
			}
			if visit(target) {
				break
			}
		}
		color[sym] = done
		return false
	}

	for _, m := range s.res.Modules {
		for _, sym := range m.Order {
			if sym.Kind == resolver.SymType || sym.Kind == resolver.SymEnum {
				visit(sym)
			}
		}
	}
}
