package layout

import "strings"

// Wrap 使用贪心算法按像素宽度折行，返回以换行符连接的文本。
//
// 显式换行先被拆成独立段落，单词不会跨段流动；空段落不输出行。
// 单个单词本身超过 maxWidth 时独占一行，不再拆分。
func Wrap(text string, measure MeasureFunc, maxWidth float64) string {
	var wrapped []string
	spaceWidth := -1.0

	for _, unit := range strings.Split(text, "\n") {
		words := strings.Fields(unit)
		if len(words) == 0 {
			continue
		}

		var buf []string
		bufWidth := 0.0
		for _, word := range words {
			wordWidth := measure(word)
			expected := wordWidth
			if len(buf) > 0 {
				if spaceWidth < 0 {
					spaceWidth = measure(" ")
				}
				expected = bufWidth + spaceWidth + wordWidth
			}
			if expected <= maxWidth || len(buf) == 0 {
				buf = append(buf, word)
				bufWidth = expected
				continue
			}
			wrapped = append(wrapped, strings.Join(buf, " "))
			buf = []string{word}
			bufWidth = wordWidth
		}
		wrapped = append(wrapped, strings.Join(buf, " "))
	}
	return strings.Join(wrapped, "\n")
}

// LineCount 返回折行结果的行数，空串为 0 行。
func LineCount(wrapped string) int {
	if wrapped == "" {
		return 0
	}
	return strings.Count(wrapped, "\n") + 1
}

func splitLines(wrapped string) []string {
	return strings.Split(wrapped, "\n")
}
