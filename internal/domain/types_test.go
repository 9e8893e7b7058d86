package domain

import "testing"

func TestConversationAppendDoesNotMutate(t *testing.T) {
	base := NewCaseConversation(CaseInfo{ID: "P-1", Type: "ECBU"})

	a := base.AppendUser("Gram negative")
	b := base.AppendUser("Gram positive")

	if len(base) != 1 {
		t.Fatalf("base length = %d, want 1", len(base))
	}
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("branch lengths = %d, %d, want 2, 2", len(a), len(b))
	}
	if a[1].Text() == b[1].Text() {
		t.Error("branches share the appended turn")
	}
}

func TestNewCaseConversation(t *testing.T) {
	tests := []struct {
		name string
		info CaseInfo
		want string
	}{
		{
			name: "with colony count",
			info: CaseInfo{ID: "P-42", Type: "urine", Count: "10^5 CFU/mL"},
			want: "Start identification for Prelevement ID: P-42, Type: urine, Colony Count: 10^5 CFU/mL.",
		},
		{
			name: "without colony count",
			info: CaseInfo{ID: "P-43", Type: "hemoculture"},
			want: "Start identification for Prelevement ID: P-43, Type: hemoculture.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := NewCaseConversation(tt.info)
			if len(conv) != 1 {
				t.Fatalf("conversation length = %d, want 1", len(conv))
			}
			if conv[0].Role != RoleUser {
				t.Errorf("role = %v, want user", conv[0].Role)
			}
			if got := conv[0].Text(); got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTurnTextJoinsParts(t *testing.T) {
	turn := Turn{Role: RoleModel, Parts: []string{"first", "second"}}
	if got := turn.Text(); got != "first\nsecond" {
		t.Errorf("Text() = %q", got)
	}
}
