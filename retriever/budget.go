package retriever

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/medicare-ai/medassist/common/logger"
)

// Budget caps how much retrieved text goes into a prompt.
type Budget struct {
	Limit int
	// Unit is "words" (default) or "tokens".
	Unit string
}

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func encoder() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			logger.Warnf("tiktoken unavailable, counting words instead: %v", err)
			return
		}
		enc = e
	})
	return enc
}

// Count measures text in the budget unit.
func (b Budget) Count(text string) int {
	if strings.EqualFold(b.Unit, "tokens") {
		if e := encoder(); e != nil {
			return len(e.Encode(text, nil, nil))
		}
	}
	return len(strings.Fields(text))
}

// Accumulate keeps whole chunks, in order, while the running total stays
// within the limit. The first chunk that would overflow ends accumulation.
func Accumulate(chunks []string, b Budget) []string {
	if b.Limit <= 0 {
		return chunks
	}
	var (
		out   []string
		total int
	)
	for _, c := range chunks {
		n := b.Count(c)
		if total+n > b.Limit {
			break
		}
		total += n
		out = append(out, c)
	}
	return out
}
