// Package chunker splits ordered dataset rows into overlapping text chunks
// suitable for embedding. Chunking is deterministic: the same rows and
// parameters always produce the same chunk IDs and content.
package chunker

import (
	"strings"

	"datarag/types"
)

const (
	fieldSeparator = "; "
	rowSeparator   = "\n"
)

// Chunker windows a row sequence into chunks of Size rows, advancing the
// window start by Size-Overlap each step. The final window may be shorter,
// never padded.
type Chunker struct {
	size    int
	overlap int
}

// New validates the chunk geometry up front. Invalid parameters are a fatal
// configuration error, caught before any work begins.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, types.NewConfigError("chunk_size", "must be positive")
	}
	if overlap < 0 {
		return nil, types.NewConfigError("chunk_overlap", "must not be negative")
	}
	if overlap >= size {
		return nil, types.NewConfigError("chunk_overlap", "must be smaller than chunk_size")
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk renders the row windows for the given source. Row bounds in the
// resulting metadata are inclusive ordinals into rows.
func (c *Chunker) Chunk(rows []types.Row, sourceID string) []types.Chunk {
	total := len(rows)
	if total == 0 {
		return nil
	}

	step := c.size - c.overlap
	chunks := make([]types.Chunk, 0, (total+step-1)/step)
	for start := 0; start < total; start += step {
		end := start + c.size
		if end > total {
			end = total
		}
		window := rows[start:end]
		chunks = append(chunks, types.Chunk{
			ID:      types.ChunkID(start, end-1),
			Content: serializeRows(window),
			Meta: types.ChunkMeta{
				StartRow: start,
				EndRow:   end - 1,
				SourceID: sourceID,
			},
			RowCount: len(window),
		})
		if end == total {
			break
		}
	}
	return chunks
}

// serializeRows joins fields as name=value with an unambiguous separator so
// field boundaries survive into the embedded text.
func serializeRows(rows []types.Row) string {
	var sb strings.Builder
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(rowSeparator)
		}
		for j, f := range row.Fields {
			if j > 0 {
				sb.WriteString(fieldSeparator)
			}
			sb.WriteString(f.Name)
			sb.WriteString("=")
			sb.WriteString(f.Value)
		}
	}
	return sb.String()
}
