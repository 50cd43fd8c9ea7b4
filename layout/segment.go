package layout

// Segment 将按时间排序的消息切分为分镜。
//
// 单次前向扫描：待定分格只有左侧发言时，若上一条消息与当前消息同一作者，
// 或上一条消息折行后超过 maxLines 行，则给待定分格补一个空白右位并输出，
// 当前消息另起一格；否则当前消息作为右位与之成对输出。
// 扫描结束时剩余的单人分格直接输出，不补空白位。
func Segment(messages []Message, linesOf func(text string) int, maxLines int) Comic {
	if maxLines <= 0 {
		maxLines = DefaultMaxLinesBeforeSplit
	}

	var (
		comic   Comic
		pending *Slot
	)
	for i, msg := range messages {
		current := Slot{AuthorID: msg.AuthorID, Text: msg.Text, Position: msg.Position}
		if pending == nil {
			pending = &current
			continue
		}

		prev := messages[i-1]
		if prev.AuthorID == msg.AuthorID || linesOf(prev.Text) > maxLines {
			comic.Panels = append(comic.Panels, Panel{Left: *pending, Right: &Slot{Filler: true}})
			pending = &current
			continue
		}

		right := current
		comic.Panels = append(comic.Panels, Panel{Left: *pending, Right: &right})
		pending = nil
	}
	if pending != nil {
		comic.Panels = append(comic.Panels, Panel{Left: *pending})
	}
	return comic
}
