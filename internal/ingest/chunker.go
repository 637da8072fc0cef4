package ingest

// Default chunking parameters. Windows are measured in runes so multi-byte
// text is never split mid-character.
const (
	DefaultMaxChars = 2000
	DefaultOverlap  = 200
)

// SplitText splits normalized text into ordered, overlapping windows of at
// most maxChars runes. Every rune of the input appears in at least one
// chunk and consecutive chunks overlap by at most overlap runes. When a
// window does not end at the text's end, the cut prefers the last
// sentence-terminating period in the window's second half to avoid
// mid-sentence breaks. Empty input yields [""] rather than an empty slice.
func SplitText(text string, maxChars, overlap int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = 0
	}

	runes := []rune(text)
	if len(runes) <= maxChars {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		end := start + maxChars
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		half := maxChars / 2
		for i := maxChars - 1; i > half; i-- {
			if runes[start+i] == '.' {
				end = start + i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[start:end]))
		next := end - overlap
		if next <= start {
			// overlap would stall the window; drop it for this step
			next = end
		}
		start = next
	}
	return chunks
}
