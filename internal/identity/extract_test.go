package identity

import "testing"

func TestExtractName(t *testing.T) {
	cases := []struct {
		summary string
		want    string
		ok      bool
	}{
		{"NCSS Tutoring (Ada Lovelace)", "Ada Lovelace", true},
		{"NCSS Tutoring （Ada Lovelace）", "Ada Lovelace", true},
		{"Tutoring (（Grace Hopper）)", "Grace Hopper", true},
		{"(a) shift then (Alan Turing)", "Alan Turing", true},
		{"Tutoring ()", "", true},
		{"Tutoring with nobody listed", "", false},
	}
	for _, c := range cases {
		got, ok := ExtractName(c.summary)
		if ok != c.ok || got != c.want {
			t.Errorf("ExtractName(%q) = %q, %v; want %q, %v", c.summary, got, ok, c.want, c.ok)
		}
	}
}

func TestExtractName_FullwidthMatchesASCII(t *testing.T) {
	a, _ := ExtractName("Tutoring (Grace Hopper)")
	b, _ := ExtractName("Tutoring （Grace Hopper）")
	if a != b {
		t.Fatalf("fullwidth parens extracted %q, ascii %q", b, a)
	}
}
