package types_test

import (
	"testing"

	"quill/internal/source"
	"quill/internal/types"
)

func TestInternDeduplicates(t *testing.T) {
	in := types.NewInterner()
	a := in.List(in.Int)
	b := in.List(in.Int)
	if a != b {
		t.Fatalf("equal types must intern to the same ID: %d vs %d", a, b)
	}
	if c := in.List(in.Float); c == a {
		t.Fatalf("distinct types must not share an ID")
	}
}

func TestNominalIdentityIsModuleAndName(t *testing.T) {
	in := types.NewInterner()
	names := source.NewInterner()
	user := names.Intern("User")
	modA := names.Intern("A")
	modB := names.Intern("B")

	a := in.Nominal(modA, user)
	b := in.Nominal(modB, user)
	if a == b {
		t.Fatalf("same name in different modules must stay distinct")
	}
	if a != in.Nominal(modA, user) {
		t.Fatalf("same (module, name) must intern to the same ID")
	}
}

func TestOptionNeverNests(t *testing.T) {
	in := types.NewInterner()
	opt := in.Option(in.Int)
	if in.Option(opt) != opt {
		t.Fatalf("Option<Option<T>> must collapse to Option<T>")
	}
}

func TestScalarByName(t *testing.T) {
	in := types.NewInterner()
	for _, name := range []string{"Int", "Float", "Bool", "String", "Bytes", "Html", "Id", "Email"} {
		id, ok := in.ScalarByName(name)
		if !ok || !id.IsValid() {
			t.Errorf("scalar %s must be pre-interned", name)
		}
	}
	if _, ok := in.ScalarByName("User"); ok {
		t.Errorf("user names must not resolve as scalars")
	}
}

func TestRefinedBase(t *testing.T) {
	in := types.NewInterner()
	age := in.Refined(types.ScalarInt, 0, 130)
	if in.Base(age) != in.Int {
		t.Fatalf("refinement base must strip to the scalar")
	}
	if in.Base(in.Int) != in.Int {
		t.Fatalf("Base must pass plain types through")
	}
}

func TestFormat(t *testing.T) {
	in := types.NewInterner()
	names := source.NewInterner()
	user := in.Nominal(source.NoStringID, names.Intern("User"))

	cases := []struct {
		id   types.TypeID
		want string
	}{
		{in.Int, "Int"},
		{in.Option(in.String), "String?"},
		{in.Result(in.Int, in.Error), "Int!"},
		{in.Result(in.Int, user), "Int!User"},
		{in.List(user), "List<User>"},
		{in.Map(in.String, in.Int), "Map<String, Int>"},
		{in.Refined(types.ScalarInt, 0, 130), "Int(0..130)"},
		{in.Task(in.Unit), "Task<Unit>"},
	}
	for _, c := range cases {
		if got := in.Format(c.id, names); got != c.want {
			t.Errorf("Format: expected %q, got %q", c.want, got)
		}
	}
}
