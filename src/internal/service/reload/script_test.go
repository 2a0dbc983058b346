package reload

import (
	"strings"
	"testing"
)

func TestInject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"body", "<html><body>x</body></html>", "<html><body>x" + Script + "</body></html>"},
		{"upper case", "<BODY>x</BODY>", "<BODY>x" + Script + "</BODY>"},
		{"last body wins", "<body>a</body><!-- </body> --></body>", "<body>a</body><!-- </body> -->" + Script + "</body>"},
		{"no body", "<p>fragment</p>", "<p>fragment</p>" + Script},
		{"empty", "", Script},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := string(Inject([]byte(c.in))); got != c.want {
				t.Errorf("Inject(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestInjectLeavesInputAlone(t *testing.T) {
	in := []byte("<body></body>")
	_ = Inject(in)
	if string(in) != "<body></body>" {
		t.Fatalf("input modified: %q", in)
	}
}

func TestScriptUsesEndpoint(t *testing.T) {
	if !strings.Contains(Script, "/__livereload") {
		t.Fatalf("script does not reference the reload endpoint: %s", Script)
	}
}
