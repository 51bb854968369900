package rank

import "testing"

func TestResolveCount(t *testing.T) {
	tests := []struct {
		name string
		hint int
		text string
		want int
	}{
		{"top N", 0, "show me top 12 candidates", 12},
		{"best N", 0, "the best 3 engineers", 3},
		{"show me N", 0, "show me 7", 7},
		{"N resumes", 0, "give me 4 resumes please", 4},
		{"N candidates", 0, "20 candidates for this role", 20},
		{"no number defaults", 0, "find candidates with go experience", 5},
		{"out of range ignored", 0, "top 500 candidates", 5},
		{"zero ignored", 0, "top 0 candidates", 5},
		{"boundary low", 0, "top 1 candidate", 1},
		{"boundary high", 0, "top 50 candidates", 50},
		{"explicit hint wins", 8, "show me top 12 candidates", 8},
		{"out of range hint falls through", 99, "top 12 candidates", 12},
		{"negative hint falls through", -1, "anything", 5},
		{"year-like numbers not counts", 0, "engineers hired since 2019", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveCount(tt.hint, tt.text); got != tt.want {
				t.Fatalf("resolveCount(%d, %q) = %d, want %d", tt.hint, tt.text, got, tt.want)
			}
		})
	}
}
