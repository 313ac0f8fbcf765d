package content

import "testing"

func TestGradeMCQ(t *testing.T) {
	item := Item{ID: "q1", CorrectAnswer: "B"}

	tests := []struct {
		response string
		want     float64
	}{
		{"B", 1},
		{"b", 1},
		{"  B  ", 1},
		{"A", 0},
		{"", 0},
	}
	for _, tt := range tests {
		got := GradeMCQ(item, tt.response)
		if got.ScoreNorm != tt.want {
			t.Errorf("GradeMCQ(%q) = %v, want %v", tt.response, got.ScoreNorm, tt.want)
		}
		if tt.want == 0 && got.Feedback == "" {
			t.Errorf("GradeMCQ(%q) should explain the right answer", tt.response)
		}
	}
}
