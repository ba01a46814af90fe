package service

import (
	"strings"

	"github.com/cloo-solutions/docrag/internal/domain"
)

const contextSeparator = "\n---\n"

// AssembleContext renders retrieval hits as prompt context. Each hit becomes
// a block headed by its citation tag, blocks are joined by a separator line,
// and citations lists each distinct tag once in first-seen order.
func AssembleContext(hits []domain.RetrievalHit) (contextText string, citations string) {
	if len(hits) == 0 {
		return "", ""
	}

	blocks := make([]string, 0, len(hits))
	tags := make([]string, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))

	for _, h := range hits {
		tag := h.Citation()
		blocks = append(blocks, tag+"\n"+h.Content+"\n")
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	return strings.Join(blocks, contextSeparator), strings.Join(tags, " ")
}
