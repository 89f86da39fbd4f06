package vmath

import "math"

// Easing Functions (缓动函数)
//
// 所有函数接受进度 t ∈ [0, 1]，返回缓动后的值，且 f(0)=0、f(1)=1。
// 参考：https://easings.net/

// EaseFunc 缓动函数类型
type EaseFunc func(t float64) float64

// EaseLinear 匀速
func EaseLinear(t float64) float64 {
	return t
}

// EaseInCubic 三次方缓入：f(t) = t³
func EaseInCubic(t float64) float64 {
	return t * t * t
}

// EaseOutCubic 三次方缓出：f(t) = 1 - (1-t)³
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// EaseInOutCubic 三次方缓入缓出（漂移曲线与形态过渡使用）
//
//	t < 0.5: f(t) = 4t³
//	t >= 0.5: f(t) = 1 - (-2t + 2)³ / 2
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// EaseInOutQuad 二次方缓入缓出（飞行阶段：先加速后减速）
func EaseInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

// EaseInOutSine 正弦缓入缓出（镜头运动）
func EaseInOutSine(t float64) float64 {
	return -(math.Cos(math.Pi*t) - 1) / 2
}

// Lerp 标量线性插值
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp01 把 t 限制到 [0, 1]
func Clamp01(t float64) float64 {
	return clamp(t, 0, 1)
}
