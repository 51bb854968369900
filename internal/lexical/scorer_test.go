package lexical

import (
	"slices"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "lowercases and strips punctuation",
			in:   "Senior Go/Python Engineer, 5+ years!",
			want: []string{"senior", "python", "engineer", "years"},
		},
		{
			name: "drops short tokens and stopwords",
			in:   "the cat is on a mat with them",
			want: []string{"cat", "mat"},
		},
		{
			name: "keeps duplicates for frequency weighting",
			in:   "kubernetes kubernetes docker",
			want: []string{"kubernetes", "kubernetes", "docker"},
		},
		{
			name: "empty input",
			in:   "  ... !!",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestScoreRange(t *testing.T) {
	pairs := [][2]string{
		{"golang backend engineer", "experienced golang engineer building backend services"},
		{"python data scientist", "java frontend developer"},
		{"", "anything"},
		{"anything", ""},
		{"kubernetes kubernetes kubernetes", "kubernetes"},
	}
	for _, p := range pairs {
		s := Score(p[0], p[1])
		if s < 0 || s > 1 {
			t.Fatalf("Score(%q, %q) = %v out of [0,1]", p[0], p[1], s)
		}
	}
}

func TestSelfScoreBeatsUnrelated(t *testing.T) {
	query := "senior golang engineer with kubernetes experience"
	self := Score(query, query)
	unrelated := Score(query, "pastry chef specializing in croissants")

	if self <= unrelated {
		t.Fatalf("self score %v must exceed unrelated score %v", self, unrelated)
	}
	if unrelated != 0 {
		t.Fatalf("fully unrelated text should score 0, got %v", unrelated)
	}
}

func TestCoverageRewardsBreadth(t *testing.T) {
	query := "golang kubernetes postgres grafana"
	broad := Score(query, "golang kubernetes postgres grafana engineer")
	narrow := Score(query, "golang golang golang golang golang")

	if broad <= narrow {
		t.Fatalf("broad match %v should beat repeated single-term match %v", broad, narrow)
	}
}

func TestStopwordOnlyQueryScoresZero(t *testing.T) {
	if s := Score("the and with from", "anything at all"); s != 0 {
		t.Fatalf("stopword-only query should score 0, got %v", s)
	}
}

func TestScoreDeterministic(t *testing.T) {
	q := "distributed systems engineer"
	d := "engineer who built distributed storage systems"
	a, b := Score(q, d), Score(q, d)
	if a != b {
		t.Fatalf("score must be deterministic: %v != %v", a, b)
	}
}
