package registry

import "testing"

func TestRegisterFirstWriterWins(t *testing.T) {
	r := New()
	if !r.Register("timespec", "posix.time") {
		t.Fatal("first registration should succeed")
	}
	if r.Register("timespec", "posix.io") {
		t.Fatal("second registration of the same name should be rejected")
	}
	ns, ok := r.Resolve("timespec")
	if !ok || ns != "posix.time" {
		t.Errorf("Resolve = %q, %v; want posix.time, true", ns, ok)
	}
}

func TestNamespaceFor(t *testing.T) {
	r := New()
	r.Register("stat", "posix.sys")
	if got := r.NamespaceFor("stat", "fallback"); got != "posix.sys" {
		t.Errorf("got %q, want posix.sys", got)
	}
	if got := r.NamespaceFor("unknown", "fallback"); got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}
}

func TestSeedFilter(t *testing.T) {
	r := New()
	n := r.Seed([]SeededType{
		{Namespace: "posix", Name: "A"},
		{Namespace: "posix.net", Name: "B"},
		{Namespace: "posixfile", Name: "C"},
		{Namespace: "other", Name: "D"},
		{Namespace: "posix", Name: ""},
		{Namespace: "posix", Name: "<Module>"},
		{Namespace: "posix", Name: "Apis"},
	}, "posix", "posix.winmd")

	if n != 2 {
		t.Fatalf("seeded %d, want 2", n)
	}
	if !r.Contains("A") || !r.Contains("B") {
		t.Error("A and B should be seeded")
	}
	if r.Contains("C") || r.Contains("D") {
		t.Error("C and D are outside the namespace filter")
	}
	if r.Contains("<Module>") || r.Contains("Apis") {
		t.Error("metadata pseudo-types must never be seeded")
	}

	e, _ := r.Lookup("A")
	if !e.External || e.Assembly != "posix.winmd" {
		t.Errorf("seeded entry = %+v; want external with assembly posix.winmd", e)
	}
}

func TestSeedNamespaceTiebreak(t *testing.T) {
	// The same name in two namespaces of one file resolves to the
	// lexicographically smaller namespace regardless of row order.
	for _, order := range [][]SeededType{
		{{Namespace: "posix.b", Name: "X"}, {Namespace: "posix.a", Name: "X"}},
		{{Namespace: "posix.a", Name: "X"}, {Namespace: "posix.b", Name: "X"}},
	} {
		r := New()
		r.Seed(order, "posix", "posix.winmd")
		ns, _ := r.Resolve("X")
		if ns != "posix.a" {
			t.Errorf("order %v: resolved to %q, want posix.a", order, ns)
		}
	}
}

func TestSeedDoesNotOverrideLocal(t *testing.T) {
	r := New()
	r.Register("stat", "local.sys")
	r.Seed([]SeededType{{Namespace: "ext.sys", Name: "stat"}}, "", "ext.winmd")
	e, _ := r.Lookup("stat")
	if e.External || e.Namespace != "local.sys" {
		t.Errorf("seeding overwrote a local entry: %+v", e)
	}
}
