// Package codeblock extracts the contents of fenced code blocks from
// markdown-ish assistant answers.
package codeblock

import "strings"

// fence opens and closes a block when it prefixes a trimmed line.
const fence = "```"

// Extract returns the bodies of every fenced block in text, in order,
// joined with a single blank line. Fence lines (including any language tag)
// and all text outside blocks are dropped. A block left open at the end of
// the text is kept. The result never ends with an added newline.
func Extract(text string) string {
	var (
		blocks  []string
		current []string
		inBlock bool
	)

	for line := range strings.SplitSeq(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), fence) {
			inBlock = !inBlock
			continue
		}

		if inBlock {
			current = append(current, line)
		} else if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
	}

	if len(current) > 0 {
		blocks = append(blocks, strings.Join(current, "\n"))
	}

	return strings.Join(blocks, "\n\n")
}
