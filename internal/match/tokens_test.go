package match

import "testing"

func TestTokenize(t *testing.T) {
	t.Parallel()

	tokens := tokenize("C++ and C# developers; Node.js experience. Go, SQL.")

	for _, want := range []string{"c++", "c#", "node.js", "go", "sql", "developers", "experience"} {
		if !tokens[want] {
			t.Fatalf("expected token %q in %v", want, tokens)
		}
	}

	for _, dropped := range []string{"and", "a", ""} {
		if tokens[dropped] {
			t.Fatalf("expected %q to be dropped", dropped)
		}
	}
}

func TestTokenizeTrimsTrailingDots(t *testing.T) {
	t.Parallel()

	tokens := tokenize("experience with sql.")
	if !tokens["sql"] {
		t.Fatalf("expected trailing dot to be trimmed, got %v", tokens)
	}
	if tokens["sql."] {
		t.Fatalf("unexpected raw token in %v", tokens)
	}
}
