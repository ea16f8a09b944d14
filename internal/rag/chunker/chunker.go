package chunker

import "strings"

// separators ordered from best to worst for semantic meaning. The empty
// string means a hard character cut.
var separators = []string{"\n\n", "\n", " ", ""}

// Split breaks text into chunks of at most size characters, preferring
// paragraph, line and word boundaries. Adjacent chunks overlap by roughly
// overlap characters. Output is deterministic and never contains an empty
// chunk.
func Split(text string, size, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	var splitChar string
	found := false
	for _, s := range separators[:len(separators)-1] {
		if strings.Contains(text, s) {
			splitChar = s
			found = true
			break
		}
	}
	if !found {
		return Window(text, size, overlap)
	}

	parts := strings.Split(text, splitChar)
	var chunks []string
	var current strings.Builder

	for _, part := range parts {
		// A single part longer than the limit gets windowed on its own.
		if len(part) > size {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, Window(part, size, overlap)...)
			continue
		}

		if current.Len()+len(part)+len(splitChar) > size {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
			}

			// Carry the tail of the previous chunk forward so adjacent
			// chunks share context. The carry shrinks whenever keeping it
			// whole would push the next chunk past the size limit.
			carry := current.String()
			if len(carry) > overlap {
				carry = carry[len(carry)-overlap:]
			}
			room := size - len(part) - len(splitChar)
			if room < 0 {
				room = 0
			}
			if len(carry) > room {
				carry = carry[len(carry)-room:]
			}
			current.Reset()
			current.WriteString(carry)
		}

		if current.Len() > 0 {
			current.WriteString(splitChar)
		}
		current.WriteString(part)
	}

	if strings.TrimSpace(current.String()) != "" {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// Window slides a fixed-size window over raw characters, advancing by
// size−overlap each step. Used for long plain text, such as extracted PDF
// body, where separator structure is unreliable. Every input character is
// covered by at least one chunk; a trailing tail smaller than overlap is
// already contained in the previous chunk and is not emitted again.
func Window(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 10
	}
	if len(text) <= size {
		return []string{text}
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}
