package embedding

import (
	"hash/fnv"
	"strings"
)

const (
	tokenCLS = 101
	tokenSEP = 102

	vocabSize = 30000
)

// Tokenizer turns text into BERT-style model inputs.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// SimpleTokenizer lowercases, splits on whitespace and maps each word to a
// hashed token ID. It is not a real wordpiece tokenizer but is stable across
// runs, which is all the bundled models need.
type SimpleTokenizer struct{}

// Tokenize returns padded input_ids, attention_mask and token_type_ids of
// length maxTokens, wrapped in [CLS]/[SEP].
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = tokenCLS
	attentionMask[0] = 1

	pos := 1
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = int64(wordID(word))
		attentionMask[pos] = 1
		pos++
	}
	if pos < maxTokens {
		inputIDs[pos] = tokenSEP
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

func wordID(word string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(word))
	// Keep IDs clear of the reserved special-token range.
	return h.Sum32()%vocabSize + 1000
}
