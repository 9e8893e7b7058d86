// Package tokens estimates the token footprint of an outbound prompt so the
// router can log how much context each model call carries.
package tokens

import (
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Estimator counts tokens with tiktoken for OpenAI-family models and falls
// back to a characters-per-token heuristic for everything else.
type Estimator struct {
	// CharsPerToken is the fallback average (default 4).
	CharsPerToken int

	cacheMu    sync.RWMutex
	codecCache map[tokenizer.Encoding]tokenizer.Codec
}

// NewEstimator creates an estimator with the default fallback ratio.
func NewEstimator() *Estimator {
	return &Estimator{
		CharsPerToken: 4,
		codecCache:    make(map[tokenizer.Encoding]tokenizer.Codec),
	}
}

// openAIFamily reports whether tiktoken encodings apply to the model name.
func openAIFamily(model string) bool {
	model = strings.ToLower(model)
	for _, prefix := range []string{"gpt-", "o1", "o3", "o4", "text-embedding", "text-davinci"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

func (e *Estimator) codecFor(model string) (tokenizer.Codec, bool) {
	if codec, err := tokenizer.ForModel(tokenizer.Model(model)); err == nil {
		return codec, true
	}

	// Unknown OpenAI-family models share the o200k_base encoding.
	encoding := tokenizer.O200kBase

	e.cacheMu.RLock()
	cached, ok := e.codecCache[encoding]
	e.cacheMu.RUnlock()
	if ok {
		return cached, true
	}

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, false
	}
	e.cacheMu.Lock()
	e.codecCache[encoding] = codec
	e.cacheMu.Unlock()
	return codec, true
}

// Count estimates the token count of the given text for the given model.
func (e *Estimator) Count(model, text string) int {
	if openAIFamily(model) {
		if codec, ok := e.codecFor(model); ok {
			if ids, _, err := codec.Encode(text); err == nil {
				return len(ids)
			}
		}
	}

	cpt := e.CharsPerToken
	if cpt <= 0 {
		cpt = 4
	}
	n := (len(text) + cpt - 1) / cpt
	if n == 0 && len(text) > 0 {
		n = 1
	}
	return n
}
