package hftokenizer

import "math"

// bpeTokenize splits a pre-tokenized word into the ids of its BPE sub-words.
//
// Starting from single characters, the adjacent pair with the lowest merge rank is merged
// (all its non-overlapping occurrences, left to right), until no mergeable pair remains.
func (t *Tokenizer) bpeTokenize(word string) []int {
	if word == "" {
		return nil
	}
	symbols := make([]string, 0, len(word))
	for _, r := range word {
		symbols = append(symbols, string(r))
	}
	if suffix := t.tokenizer.Model.EndOfWordSuffix; suffix != "" {
		symbols[len(symbols)-1] += suffix
	}

	for len(symbols) > 1 {
		bestRank := math.MaxInt
		var best Merge
		for i := 0; i < len(symbols)-1; i++ {
			pair := Merge{Left: symbols[i], Right: symbols[i+1]}
			if rank, found := t.mergeRanks[pair]; found && rank < bestRank {
				bestRank, best = rank, pair
			}
		}
		if bestRank == math.MaxInt {
			break
		}
		merged := make([]string, 0, len(symbols))
		for i := 0; i < len(symbols); i++ {
			if i < len(symbols)-1 && symbols[i] == best.Left && symbols[i+1] == best.Right {
				merged = append(merged, best.Left+best.Right)
				i++
				continue
			}
			merged = append(merged, symbols[i])
		}
		symbols = merged
	}

	ids := make([]int, 0, len(symbols))
	for _, symbol := range symbols {
		if id, ok := t.tokenizer.Model.Vocab[symbol]; ok {
			ids = append(ids, id)
		} else if t.unkID >= 0 {
			ids = append(ids, t.unkID)
		}
	}
	return ids
}
