package layout

import (
	"encoding/json"
	"fmt"
	"os"
)

// DebugDump 是调试 JSON 的顶层结构：先是切分好的分镜数据，再是完整布局。
type DebugDump struct {
	Comic  Comic   `json:"comic"`
	Layout *Result `json:"layout"`
}

// NewDebugDump 从布局结果中取回分镜数据，空白占位也保留下来。
func NewDebugDump(res *Result) DebugDump {
	dump := DebugDump{Layout: res}
	if res == nil {
		return dump
	}
	dump.Comic.Panels = make([]Panel, len(res.Panels))
	for i, p := range res.Panels {
		dump.Comic.Panels[i] = p.Panel
	}
	return dump
}

// WriteDebugJSON 把分镜数据与布局结果写成 JSON，便于排查奇怪的渲染结果。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return fmt.Errorf("%w: 没有可输出的布局结果", ErrInvalidInput)
	}
	data, err := json.MarshalIndent(NewDebugDump(res), "", "  ")
	if err != nil {
		return fmt.Errorf("序列化调试数据失败: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
