package block

import "strings"

// Segment splits content into its ordered block sequence. Segmentation is
// line based and lossless: every input byte lands in exactly one block.
func Segment(content string) []Block {
	if content == "" {
		return nil
	}

	lines := splitAfterNewlines(content)
	blocks := make([]Block, 0, len(lines)/2+1)

	var (
		current   strings.Builder
		kind      Kind
		open      bool
		fenceMark string
	)

	flush := func() {
		if open {
			blocks = append(blocks, Block{Kind: kind, Text: current.String()})
			current.Reset()
			open = false
		}
	}
	start := func(k Kind, line string) {
		flush()
		kind = k
		open = true
		current.WriteString(line)
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Inside a code fence everything accumulates until the closing
		// fence line.
		if open && kind == KindCodeFence && fenceMark != "" {
			current.WriteString(line)
			if isFenceLine(trimmed, fenceMark) {
				fenceMark = ""
				flush()
			}
			continue
		}

		switch {
		case trimmed == "":
			if open && kind == KindBlank {
				current.WriteString(line)
			} else {
				start(KindBlank, line)
			}

		case openingFence(trimmed) != "":
			start(KindCodeFence, line)
			fenceMark = openingFence(trimmed)

		case isHeadingLine(trimmed):
			start(KindHeading, line)
			flush()

		case isListMarkerLine(line):
			start(KindListItem, line)

		case open && kind == KindListItem && isIndented(line):
			// Indented continuation of the current list item.
			current.WriteString(line)

		default:
			if open && kind == KindParagraph {
				current.WriteString(line)
			} else {
				start(KindParagraph, line)
			}
		}
	}
	flush()

	return blocks
}

// splitAfterNewlines splits s into lines, each retaining its trailing
// newline. The final line may lack one.
func splitAfterNewlines(s string) []string {
	lines := make([]string, 0, strings.Count(s, "\n")+1)
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}

// openingFence returns the fence marker ("```" or "~~~") if the trimmed
// line opens a fenced code region, or "" otherwise.
func openingFence(trimmed string) string {
	switch {
	case strings.HasPrefix(trimmed, "```"):
		return "```"
	case strings.HasPrefix(trimmed, "~~~"):
		return "~~~"
	default:
		return ""
	}
}

// isFenceLine reports whether the trimmed line closes a fence opened with
// mark: same marker, nothing but the marker (an info string only appears on
// the opening fence).
func isFenceLine(trimmed, mark string) bool {
	return strings.TrimRight(trimmed, string(mark[0])) == "" && strings.HasPrefix(trimmed, mark)
}

// isHeadingLine reports whether the trimmed line is an ATX heading: one to
// six '#' followed by a space or end of line.
func isHeadingLine(trimmed string) bool {
	if trimmed == "" || trimmed[0] != '#' {
		return false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level > 6 {
		return false
	}
	return level == len(trimmed) || trimmed[level] == ' ' || trimmed[level] == '\t'
}

// isListMarkerLine reports whether the line starts a list item: optional
// indent, then "-", "*", "+" or an ordered marker like "3." / "3)", then
// whitespace.
func isListMarkerLine(line string) bool {
	rest := strings.TrimLeft(line, " \t")
	if rest == "" {
		return false
	}

	switch rest[0] {
	case '-', '*', '+':
		return len(rest) > 1 && (rest[1] == ' ' || rest[1] == '\t')
	}

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits >= len(rest) {
		return false
	}
	if rest[digits] != '.' && rest[digits] != ')' {
		return false
	}
	tail := rest[digits+1:]
	return tail != "" && (tail[0] == ' ' || tail[0] == '\t')
}

// isIndented reports whether the line begins with whitespace, marking it as
// a potential continuation of the current list item.
func isIndented(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}
