package components

import "github.com/decker502/nebula/pkg/vmath"

// ParentSpace 变换所属的父空间
type ParentSpace int

const (
	// ParentSceneRoot 场景根节点（世界坐标）
	ParentSceneRoot ParentSpace = iota
	// ParentField 星云自身的变换（局部坐标，随星云旋转）
	ParentField
)

func (p ParentSpace) String() string {
	switch p {
	case ParentField:
		return "field"
	default:
		return "scene"
	}
}

// TransformComponent 实体的位置与视觉变换
//
// Position 的坐标系由 Parent 决定：ParentSceneRoot 为世界坐标，
// ParentField 为星云局部坐标。
type TransformComponent struct {
	Position vmath.Vec3
	Parent   ParentSpace
	Scale    float64 // 1.0 = 原始尺寸
	Opacity  float64 // 0..1
}
