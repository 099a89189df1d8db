package display

import (
	"fmt"
	"io"
	"strings"
)

const (
	whitePieces = "♔♕♖♗♘♙"
	blackPieces = "♚♛♜♝♞♟"
)

// RenderBoard writes the service's board drawing with colored pieces and
// coordinates. The drawing is treated as opaque text; only single runes
// are recolored.
func RenderBoard(w io.Writer, board string) {
	lines := strings.Split(board, "\n")

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		isFileLine := isFileLegend(line)

		for i, char := range line {
			switch {
			case isFileLine && (char >= 'a' && char <= 'h' || char >= 'A' && char <= 'H'):
				// File letters - Cyan
				fmt.Fprintf(w, "%s%c%s", Cyan, char, Reset)
			case char >= '1' && char <= '8' && i == 0:
				// Rank numbers - Cyan
				fmt.Fprintf(w, "%s%c%s", Cyan, char, Reset)
			case strings.ContainsRune(whitePieces, char), char >= 'A' && char <= 'Z':
				fmt.Fprintf(w, "%s%c%s", Blue, char, Reset)
			case strings.ContainsRune(blackPieces, char), char >= 'a' && char <= 'z':
				fmt.Fprintf(w, "%s%c%s", Red, char, Reset)
			default:
				fmt.Fprintf(w, "%c", char)
			}
		}
		fmt.Fprintln(w)
	}
}

// isFileLegend reports whether line only holds file letters, as in " A B C D E F G H".
func isFileLegend(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if len(f) != 1 {
			return false
		}
		c := f[0] | 0x20
		if c < 'a' || c > 'h' {
			return false
		}
	}
	return true
}

// ColorForSide returns a colored side name for the service's colour values.
func ColorForSide(color string) string {
	switch strings.ToLower(color) {
	case "w", "white":
		return Blue + "White" + Reset
	case "b", "black":
		return Red + "Black" + Reset
	}
	return color
}
