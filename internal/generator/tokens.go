package generator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pkoukk/tiktoken-go"

	"github.com/hpn/hpn-blueprint/internal/domain"
)

// TokensPerWord is the approximation ratio used by WordCounter (1 word ≈ 1.3 tokens).
const TokensPerWord = 1.3

// TokenCounter estimates how many tokens a text costs.
// It is only consulted when the vendor does not report usage.
type TokenCounter interface {
	Count(text string) int
}

// WordCounter estimates tokens from the word count. It needs no vocabulary files.
type WordCounter struct{}

// Count counts runs of letters and digits and applies TokensPerWord.
func (WordCounter) Count(text string) int {
	if text == "" {
		return 0
	}

	words := 0
	inWord := false
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if !inWord {
				words++
				inWord = true
			}
		} else {
			inWord = false
		}
	}

	tokens := int(float64(words) * TokensPerWord)
	if tokens == 0 && words > 0 {
		tokens = 1
	}
	return tokens
}

// BPECounter counts tokens with a tiktoken encoding.
type BPECounter struct {
	enc *tiktoken.Tiktoken
}

// NewBPECounter selects the encoding for model, falling back to cl100k_base
// for models tiktoken does not know.
func NewBPECounter(model string) (*BPECounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &BPECounter{enc: enc}, nil
}

func (c *BPECounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}

// NewTokenCounter builds the counter named in configuration:
// "words" (or empty) for the heuristic, "tiktoken" or "tiktoken:<model>" for BPE.
func NewTokenCounter(name string) (TokenCounter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch {
	case name == "" || name == "words" || name == "heuristic":
		return WordCounter{}, nil
	case name == "tiktoken":
		return NewBPECounter("gpt-4")
	case strings.HasPrefix(name, "tiktoken:"):
		return NewBPECounter(strings.TrimPrefix(name, "tiktoken:"))
	}
	return nil, fmt.Errorf("unknown tokenizer %q", name)
}

// estimateUsage fills in usage from the prompt and completion text.
func estimateUsage(counter TokenCounter, prompt, completion string) domain.Usage {
	in, out := counter.Count(prompt), counter.Count(completion)
	return domain.Usage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out, Estimated: true}
}
