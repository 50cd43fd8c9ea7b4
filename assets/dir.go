package assets

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/weeed/fonts"
	"github.com/ByLCY/weeed/renderer"
)

// Kind 是资源目录下的子目录名。
type Kind string

const (
	KindBackground Kind = "background"
	KindFont       Kind = "font"
	KindCharacter  Kind = "char"
)

// Kinds 列出所有资源类型。
var Kinds = []Kind{KindBackground, KindFont, KindCharacter}

const (
	defaultTTL     = 30 * time.Minute
	defaultCleanup = 1 * time.Hour
)

// Dir 从数据目录读取资源，目录结构为 background/、font/、char/。
// 解码后的图片会被缓存并在多个请求之间共享，调用方必须把它们当作只读。
type Dir struct {
	root  string
	cache *cache.Cache
}

var _ renderer.AssetLoader = (*Dir)(nil)

// NewDir 创建以 root 为根的资源目录。ttl <= 0 时使用默认缓存时长。
func NewDir(root string, ttl time.Duration) *Dir {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Dir{
		root:  root,
		cache: cache.New(ttl, defaultCleanup),
	}
}

// Root 返回资源根目录。
func (d *Dir) Root() string { return d.root }

// List 返回某类资源的文件名，按字母排序。
func (d *Dir) List(kind Kind) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(d.root, string(kind)))
	if err != nil {
		return nil, fmt.Errorf("读取资源目录 %s 失败: %w", kind, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// Has 报告某类资源中是否存在 name。内置字体总是存在。
func (d *Dir) Has(kind Kind, name string) (bool, error) {
	if kind == KindFont && fonts.IsBuiltin(name) {
		_, err := fonts.Load(name)
		return err == nil, nil
	}
	path, err := d.path(kind, name)
	if err != nil {
		return false, nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// Background 实现 renderer.AssetLoader。
func (d *Dir) Background(name string) (image.Image, error) {
	return d.image(KindBackground, name)
}

// Character 实现 renderer.AssetLoader。
func (d *Dir) Character(name string) (image.Image, error) {
	return d.image(KindCharacter, name)
}

// Font 实现 renderer.AssetLoader，支持 builtin:* 内置字体。
func (d *Dir) Font(name string) ([]byte, error) {
	if fonts.IsBuiltin(name) {
		return fonts.Load(name)
	}
	key := cacheKey(KindFont, name)
	if v, ok := d.cache.Get(key); ok {
		return v.([]byte), nil
	}
	path, err := d.path(KindFont, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", name, err)
	}
	d.cache.Set(key, data, cache.DefaultExpiration)
	return data, nil
}

// Characters 并发加载一组角色图片，任一失败则整体失败。
func (d *Dir) Characters(ctx context.Context, names []string) (map[string]image.Image, error) {
	var mu sync.Mutex
	out := make(map[string]image.Image, len(names))
	eg, egCtx := errgroup.WithContext(ctx)
	for _, name := range names {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			img, err := d.Character(name)
			if err != nil {
				return err
			}
			mu.Lock()
			out[name] = img
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Dir) image(kind Kind, name string) (image.Image, error) {
	key := cacheKey(kind, name)
	if v, ok := d.cache.Get(key); ok {
		return v.(image.Image), nil
	}
	path, err := d.path(kind, name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", name, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", name, err)
	}
	d.cache.Set(key, img, cache.DefaultExpiration)
	return img, nil
}

// path 拼出资源路径，拒绝带目录的文件名。
func (d *Dir) path(kind Kind, name string) (string, error) {
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return "", fmt.Errorf("非法的资源文件名 %q", name)
	}
	return filepath.Join(d.root, string(kind), name), nil
}

func cacheKey(kind Kind, name string) string {
	return string(kind) + "/" + name
}
