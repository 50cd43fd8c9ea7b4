package layout

import (
	"fmt"
	"math/rand/v2"
)

// UniqueAuthors 按首次出现顺序返回去重后的作者列表。
func UniqueAuthors(messages []Message) []string {
	seen := make(map[string]struct{}, len(messages))
	var out []string
	for _, m := range messages {
		if _, ok := seen[m.AuthorID]; ok {
			continue
		}
		seen[m.AuthorID] = struct{}{}
		out = append(out, m.AuthorID)
	}
	return out
}

// AssignCharacters 为每位作者随机分配一个角色图片句柄。
//
// 图片数量足够时不重复抽取；不足时在打乱后的列表上循环复用。
// 随机源由调用方传入，相同种子得到相同分配。
func AssignCharacters(authorIDs []string, handles []string, rng *rand.Rand) (map[string]string, error) {
	if len(handles) == 0 {
		return nil, fmt.Errorf("%w: 没有可用的角色图片", ErrInvalidInput)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: 缺少随机源", ErrInvalidInput)
	}

	pool := make([]string, len(handles))
	copy(pool, handles)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	out := make(map[string]string, len(authorIDs))
	for i, id := range authorIDs {
		out[id] = pool[i%len(pool)]
	}
	return out, nil
}
