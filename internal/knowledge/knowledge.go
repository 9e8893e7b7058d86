// Package knowledge supplies the static domain reference text injected into
// the model's system instruction. The text is assembled from labeled sections
// and is never parsed structurally by the rest of the service.
package knowledge

import (
	_ "embed"
	"encoding/json"
	"strings"
	"sync"
)

// MaxLen caps the assembled knowledge text to keep the prompt bounded.
const MaxLen = 15000

//go:embed en.json
var enRaw []byte

//go:embed fr.json
var frRaw []byte

type sections struct {
	Identification struct {
		Rules         []string `json:"rules"`
		DecisionPaths []string `json:"decision_paths"`
	} `json:"identification"`
	Sensitivity struct {
		Rules               []string `json:"rules"`
		UrineInterpretation []string `json:"urine_interpretation"`
	} `json:"sensitivity"`
}

var (
	once   sync.Once
	loaded map[string]sections
)

func load() {
	loaded = make(map[string]sections, 2)
	for lang, raw := range map[string][]byte{"en": enRaw, "fr": frRaw} {
		var s sections
		if err := json.Unmarshal(raw, &s); err != nil {
			// Embedded data is validated by tests; an empty section set
			// degrades to a knowledge-free prompt rather than a crash.
			continue
		}
		loaded[lang] = s
	}
}

// Static returns the assembled knowledge text for a language tag. Unknown
// tags fall back to English.
func Static(lang string) string {
	once.Do(load)
	s, ok := loaded[lang]
	if !ok {
		s = loaded["en"]
	}

	var b strings.Builder
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString("### " + title + "\n")
		for _, item := range items {
			b.WriteString("- " + item + "\n")
		}
	}
	section("Identification Rules", s.Identification.Rules)
	section("Identification Decision Paths", s.Identification.DecisionPaths)
	section("Sensitivity Rules", s.Sensitivity.Rules)
	section("Urine Interpretation", s.Sensitivity.UrineInterpretation)

	txt := strings.TrimRight(b.String(), "\n")
	if len(txt) > MaxLen {
		txt = txt[:MaxLen]
	}
	return txt
}
