package prompt

import (
	"strings"
	"testing"
)

func TestSystemIncludesKnowledge(t *testing.T) {
	sys := System("en", DetailMore)
	if !strings.Contains(sys, "REFERENCE MATERIAL") {
		t.Error("system instruction lacks the reference material block")
	}
	if !strings.Contains(sys, "MicrobeMap AI") {
		t.Error("system instruction lacks the persona")
	}
}

func TestSystemLanguages(t *testing.T) {
	en := System("en", DetailMore)
	fr := System("fr", DetailMore)
	if en == fr {
		t.Error("fr system instruction equals en")
	}
	if !strings.Contains(fr, "microbiologiste") {
		t.Error("fr system instruction is not French")
	}
	// Unknown tags fall back to English.
	if System("de", DetailMore) != en {
		t.Error("unknown language does not fall back to English")
	}
}

func TestReportingGuidanceDetail(t *testing.T) {
	normal := ReportingGuidance("en", DetailNormal)
	more := ReportingGuidance("en", DetailMore)
	if normal == more {
		t.Error("detail levels produce identical guidance")
	}
}

func TestHelpSystemIsPlainText(t *testing.T) {
	help := HelpSystem("en")
	if strings.Contains(help, "REFERENCE MATERIAL") {
		t.Error("help instruction should not carry the knowledge block")
	}
	if !strings.Contains(help, "plain text") {
		t.Error("help instruction does not demand plain text")
	}
	if HelpSystem("fr") == help {
		t.Error("fr help instruction equals en")
	}
}
