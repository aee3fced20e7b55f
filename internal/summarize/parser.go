// Package summarize batches articles through the AI model on a cooldown
// schedule and parses the numbered-block responses.
package summarize

import (
	"regexp"
	"strconv"
	"strings"
)

const maxSummaryLines = 3

var (
	blockHeaderRe   = regexp.MustCompile(`\[(\d+)\]`)
	conclusionRe    = regexp.MustCompile(`^결론\s*[:：]\s*`)
	leadingBulletRe = regexp.MustCompile(`^[-*•·]\s*`)
)

// Block is one parsed per-article summary.
type Block struct {
	Index      int // 1-based position in the request batch
	Lines      []string
	Conclusion string
}

// ParseNumberedBlocks splits a model response of the form
//
//	[1]
//	요약 줄
//	요약 줄
//	결론: 한 줄 결론
//	[2]
//	...
//
// into per-article blocks. A block with no summary lines is dropped silently,
// even when a 결론 line parsed — the item stays unsummarized and is picked up
// by a later cycle. A missing 결론 line leaves Conclusion empty but keeps the
// block. At most three summary lines are kept per block.
func ParseNumberedBlocks(response string) []Block {
	matches := blockHeaderRe.FindAllStringSubmatchIndex(response, -1)
	if len(matches) == 0 {
		return nil
	}

	var blocks []Block
	for i, m := range matches {
		index, err := strconv.Atoi(response[m[2]:m[3]])
		if err != nil || index < 1 {
			continue
		}

		end := len(response)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := response[m[1]:end]

		block := parseBlock(index, body)
		if len(block.Lines) == 0 {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func parseBlock(index int, body string) Block {
	block := Block{Index: index}

	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		line = leadingBulletRe.ReplaceAllString(line, "")
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "결론") {
			block.Conclusion = strings.TrimSpace(conclusionRe.ReplaceAllString(line, ""))
			continue
		}
		if len(block.Lines) < maxSummaryLines {
			block.Lines = append(block.Lines, line)
		}
	}
	return block
}
