package analyzer

import (
	"strings"
	"unicode/utf16"

	"github.com/woxQAQ/mongodb-playground-lsp/pkg/protocol"
)

// Placeholder marks the cursor inside the parsed text. It is a valid
// identifier and string fragment, so db.coll<cursor> still parses and the
// node containing the cursor can be found by substring match.
const Placeholder = "__mdbCursorPlaceholder__"

// insertPlaceholder splices Placeholder into text at pos. It reports false
// when pos.Line is outside the document. A character offset past the end of
// the line is clamped to the end of the line.
func insertPlaceholder(text string, pos protocol.Position) (string, bool) {
	lines := strings.Split(text, "\n")
	if pos.Line < 0 || pos.Line >= len(lines) {
		return "", false
	}

	line := lines[pos.Line]
	at := byteOffset(line, pos.Character)
	lines[pos.Line] = line[:at] + Placeholder + line[at:]

	return strings.Join(lines, "\n"), true
}

// byteOffset converts a UTF-16 character offset into a byte offset in line.
func byteOffset(line string, character int) int {
	if character <= 0 {
		return 0
	}

	units := 0
	for i, r := range line {
		if units >= character {
			return i
		}
		units += utf16.RuneLen(r)
	}
	return len(line)
}
