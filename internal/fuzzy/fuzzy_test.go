package fuzzy

import "testing"

func TestFindBest(t *testing.T) {
	m := NewMatcher(2)
	candidates := []string{"start", "stop", "status", "restart"}

	tests := []struct {
		input string
		want  string
	}{
		{"strat", "start"},
		{"stat", "start"},
		{"stpo", "stop"},
		{"statsu", "status"},
		{"STOP", ""},
		{"deploy", ""},
		{"s", ""},
	}
	for _, tt := range tests {
		if got := m.FindBest(tt.input, candidates); got != tt.want {
			t.Errorf("FindBest(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFindMatchesOrdering(t *testing.T) {
	m := NewMatcher(2)
	got := m.FindMatches("bild", []string{"guild", "build", "bind"})
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %v", got)
	}
	want := []Match{{"bind", 1}, {"build", 1}, {"guild", 2}}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("match %d = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestDistanceUnicode(t *testing.T) {
	m := NewMatcher(3)
	if d := m.distance([]rune("café"), []rune("cafe")); d != 1 {
		t.Errorf("expected distance 1, got %d", d)
	}
	if d := m.distance([]rune(""), []rune("abc")); d != 3 {
		t.Errorf("expected distance 3, got %d", d)
	}
	if d := NewMatcher(1).distance([]rune("abcdef"), []rune("uvwxyz")); d != 2 {
		t.Errorf("expected early exit at max+1, got %d", d)
	}
}
