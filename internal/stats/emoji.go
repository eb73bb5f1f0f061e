package stats

// emojiRanges holds the Unicode ranges counted as emoji: emoticons,
// symbols & pictographs, transport & map symbols, regional indicator flags,
// dingbats, and supplemental symbols & pictographs.
var emojiRanges = [...]struct{ lo, hi rune }{
	{0x1F600, 0x1F64F},
	{0x1F300, 0x1F5FF},
	{0x1F680, 0x1F6FF},
	{0x1F1E0, 0x1F1FF},
	{0x2702, 0x27B0},
	{0x1F900, 0x1F9FF},
}

// IsEmoji reports whether r falls in one of the emoji ranges
func IsEmoji(r rune) bool {
	for _, rg := range emojiRanges {
		if r >= rg.lo && r <= rg.hi {
			return true
		}
	}
	return false
}

// CountEmojis counts emoji occurrences in text. A run of consecutive emoji
// counts as one occurrence.
func CountEmojis(text string) int {
	count := 0
	inRun := false
	for _, r := range text {
		if IsEmoji(r) {
			if !inRun {
				count++
				inRun = true
			}
		} else {
			inRun = false
		}
	}
	return count
}

// StripEmojis removes every emoji rune from text
func StripEmojis(text string) string {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if !IsEmoji(r) {
			out = append(out, r)
		}
	}
	return string(out)
}
