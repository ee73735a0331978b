package rag

import (
	"fmt"
	"strings"

	"github.com/folioqa/folio/internal/vectorstore"
)

// BuildContext renders retrieved chunks into the augmented context block and
// its parallel citation list. Markers S1..Sn follow retrieval rank order, so
// markers the model echoes line up one-to-one with the citation lines. Zero
// chunks yield an empty block and an empty list.
func BuildContext(results []vectorstore.Result) (string, []Citation) {
	if len(results) == 0 {
		return "", nil
	}

	lines := make([]string, 0, len(results))
	citations := make([]Citation, 0, len(results))
	for i, r := range results {
		marker := fmt.Sprintf("S%d", i+1)
		lines = append(lines, fmt.Sprintf("[%s] %s", marker, r.Text))
		citations = append(citations, Citation{
			Marker:  marker,
			Source:  r.Source,
			ChunkID: r.ChunkID,
		})
	}
	return strings.Join(lines, "\n\n"), citations
}
