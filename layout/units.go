package layout

import (
	"fmt"
	"math"
)

// 渲染时 1 像素对应画布上的 1 个长度单位（mm），字体字号以 pt 计。
const (
	PtToPx = 0.352777
	PxToPt = 1.0 / PtToPx
)

// Thumbnail 计算把 srcW×srcH 的图片缩进 maxW×maxH 后的尺寸。
// 保持宽高比，只缩小不放大，结果至少为 1 像素。
func Thumbnail(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0
	}
	w, h := srcW, srcH
	if w > maxW {
		h = max(int(math.Round(float64(h)*float64(maxW)/float64(w))), 1)
		w = maxW
	}
	if h > maxH {
		w = max(int(math.Round(float64(w)*float64(maxH)/float64(h))), 1)
		h = maxH
	}
	return w, h
}

// ceilPx 把测量值向上取整到整像素。
func ceilPx(v float64) int {
	return int(math.Ceil(v - 1e-9))
}

// validMeasure 检查测量回调返回的宽度或高度。
func validMeasure(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: 测量值 %v", ErrMeasurement, v)
	}
	return nil
}
