package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Prefix 标记内置字体，例如 "builtin:goregular"。
const Prefix = "builtin:"

var builtin = map[string][]byte{
	"goregular": goregular.TTF,
	"gobold":    gobold.TTF,
	"gomono":    gomono.TTF,
	"lmroman":   lmroman10regular.TTF,
	"lmbold":    lmroman10bold.TTF,
}

// IsBuiltin 报告 src 是否指向内置字体。
func IsBuiltin(src string) bool {
	return strings.HasPrefix(src, Prefix)
}

// Load 返回内置字体的字节数据，name 可写为 "builtin:goregular" 或直接 "goregular"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimPrefix(name, Prefix))
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("找不到内置字体 %s", name)
	}
	return data, nil
}

// Names 返回所有内置字体名（带 builtin: 前缀），按字母排序。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, Prefix+name)
	}
	sort.Strings(out)
	return out
}
