package htmltext

import "testing"

func TestFlatten(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "just a  plain   sentence", "just a plain sentence"},
		{"paragraphs break lines", "<p>first</p><p>second</p>", "first\nsecond"},
		{"script dropped", "<p>keep</p><script>alert(1)</script>", "keep"},
		{"style dropped", "<style>p{color:red}</style><div>body</div>", "body"},
		{"inline markup unwrapped", "please <b>reply</b> by <i>Friday</i>", "please reply by Friday"},
		{"list items", "<ul><li>one</li><li>two</li></ul>", "one\ntwo"},
		{"empty", "", ""},
		{"whitespace soup", "  \n\n   \n ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Flatten(tc.in); got != tc.want {
				t.Fatalf("Flatten(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFlatten_AngleBracketInPlainText(t *testing.T) {
	// A lone "<" in prose should still come out readable.
	got := Flatten("totals < 10 today")
	if got == "" {
		t.Fatalf("flatten swallowed the text: %q", got)
	}
}
