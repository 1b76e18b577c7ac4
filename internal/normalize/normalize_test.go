package normalize

import "testing"

func TestKeyFoldsCaseAndSeparators(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Foo", "foo"},
		{"foo_", "foo"},
		{"The Left-Hand  of.Darkness", "thelefthandofdarkness"},
		{"ＦＯＯ　Ｂａｒ", "foobar"},
		{"Straße", "strasse"},
	}
	for _, tc := range cases {
		if got := Key(tc.in); got != tc.want {
			t.Fatalf("Key(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestKeyStripsMarkers(t *testing.T) {
	inputs := []string{
		"Foo [complete]",
		"Foo (Full)",
		"Foo {proofread}",
		"Foo <Unabridged>",
		"Foo 【完结】",
		"Foo（精校版）",
		"Foo 〔全本〕",
		"Foo「完」",
		"Foo [ full text ]",
		"Foo [com-plete]",
		"Foo [complete] (revised)",
	}
	for _, input := range inputs {
		if got := Key(input); got != "foo" {
			t.Fatalf("Key(%q) = %q, want foo", input, got)
		}
	}
}

func TestKeyKeepsNonMarkerBrackets(t *testing.T) {
	if got := Key("Dune (Book 1)"); got != "dune(book1)" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := Key("complete works"); got != "completeworks" {
		t.Fatalf("unbracketed marker words must survive, got %q", got)
	}
}

func TestKeyIdempotent(t *testing.T) {
	inputs := []string{
		"Foo [complete]",
		"  The  Name_of.the-Wind (Full) ",
		"三体【精校版】",
		"[complete]",
		"Ｆｕｌｌ　Ｍｅｔａｌ",
		"e.\u0301clair",
		"",
	}
	for _, input := range inputs {
		once := Key(input)
		if twice := Key(once); twice != once {
			t.Fatalf("Key not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestMarkerRemovalCommutesWithCollapse(t *testing.T) {
	inputs := []string{
		"foo [ complete ]",
		"foo [com plete]",
		"bar_(full.text)",
		"baz - 【 完 结 】",
		"qux [completed] [final]",
	}
	for _, input := range inputs {
		a := collapse(stripAll(foldedMarkers, input))
		b := stripAll(foldedMarkers, collapse(input))
		if a != b {
			t.Fatalf("order dependence for %q: strip-then-collapse %q, collapse-then-strip %q", input, a, b)
		}
	}
}

func TestStripMarkersPreservesCase(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Foo [complete]", "Foo"},
		{"  The Hobbit (FULL)  ", "The Hobbit"},
		{"Foo  Bar", "Foo Bar"},
		{"三体【完结】", "三体"},
		{"Dune (Book 1)", "Dune (Book 1)"},
	}
	for _, tc := range cases {
		if got := StripMarkers(tc.in); got != tc.want {
			t.Fatalf("StripMarkers(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAuthorKey(t *testing.T) {
	if got := AuthorKey("  Ursula K. Le Guin "); got != "ursula k. le guin" {
		t.Fatalf("unexpected author key %q", got)
	}
}
