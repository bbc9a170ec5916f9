package entities

import (
	"math"
	"unicode/utf16"
)

// Palette is the fixed set of colour tags an event can carry.
var Palette = []string{
	"#ef4444",
	"#f97316",
	"#f59e0b",
	"#84cc16",
	"#10b981",
	"#06b6d4",
	"#3b82f6",
	"#6366f1",
	"#a855f7",
	"#ec4899",
}

// IsPaletteColor reports whether c is one of the palette tags.
func IsPaletteColor(c string) bool {
	for _, p := range Palette {
		if p == c {
			return true
		}
	}
	return false
}

// ColorFor derives a palette tag from a title. The rolling hash runs over
// UTF-16 code units with the shift performed on int32, so colours match what
// browsers rendered for existing records.
func ColorFor(title string) string {
	var hash float64
	for _, code := range utf16.Encode([]rune(title)) {
		shifted := toInt32(hash) << 5
		hash = float64(code) + (float64(shifted) - hash)
	}
	idx := int64(math.Abs(hash)) % int64(len(Palette))
	return Palette[idx]
}

func toInt32(f float64) int32 {
	return int32(int64(f))
}
