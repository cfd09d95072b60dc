package refactor

import "strings"

// HeadingLevel returns the ATX heading level of line: the length of the
// leading run of '#' when it is immediately followed by a space, else 0.
func HeadingLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n == len(line) || line[n] != ' ' {
		return 0
	}
	return n
}

// StripHeading removes the heading markup (the '#' run and the blanks after
// it) from line. Lines that are not headings are returned unchanged.
func StripHeading(line string) string {
	level := HeadingLevel(line)
	if level == 0 {
		return line
	}
	return strings.TrimLeft(line[level:], " \t")
}

// NormalizeHeadingLevels shifts every heading up so that the shallowest one
// becomes level 1. Non-heading lines are left alone. The input is not
// modified.
func NormalizeHeadingLevels(lines []string) []string {
	out := make([]string, len(lines))
	copy(out, lines)

	minLevel := 0
	for _, line := range out {
		if l := HeadingLevel(line); l > 0 && (minLevel == 0 || l < minLevel) {
			minLevel = l
		}
	}
	if minLevel <= 1 {
		return out
	}

	shift := minLevel - 1
	for i, line := range out {
		if HeadingLevel(line) > 0 {
			out[i] = line[shift:]
		}
	}
	return out
}

// SplitByHeading partitions document into blocks, one per heading of the
// given level. A block holds the heading line and everything beneath it up
// to the next heading of the same level or a shallower one. Shallower
// headings close the current block and belong to no block.
func SplitByHeading(document string, level int) [][]string {
	if level < 1 {
		return nil
	}

	var blocks [][]string
	var current []string
	for _, line := range strings.Split(document, "\n") {
		l := HeadingLevel(line)
		switch {
		case l == level:
			if current != nil {
				blocks = append(blocks, current)
			}
			current = []string{line}
		case current == nil:
		case l > 0 && l < level:
			blocks = append(blocks, current)
			current = nil
		default:
			current = append(current, line)
		}
	}
	if current != nil {
		blocks = append(blocks, current)
	}
	return blocks
}
