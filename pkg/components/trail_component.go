package components

import "github.com/decker502/nebula/pkg/vmath"

// TrailMesh 拖尾管道网格
//
// 每帧从头重建：Rings 始终等于本帧使用的拖尾点数，
// Vertices 长度 = Rings * RadialSegments。切片容量在帧间复用。
type TrailMesh struct {
	Vertices       []vmath.Vec3
	Radii          []float64 // 每个环的半径，与环一一对应
	Indices        []uint16
	Rings          int
	RadialSegments int
}

// Reset 清空网格但保留底层数组
func (m *TrailMesh) Reset() {
	m.Vertices = m.Vertices[:0]
	m.Radii = m.Radii[:0]
	m.Indices = m.Indices[:0]
	m.Rings = 0
}

// Empty reports whether the mesh has no triangles.
func (m *TrailMesh) Empty() bool {
	return len(m.Indices) == 0
}

// TrailComponent 拖尾状态
type TrailComponent struct {
	// Positions 最近的世界坐标，Positions[0] 为头部（最新）
	Positions []vmath.Vec3
	// MaxLength 本帧生效的最大长度（随阶段和速度变化）
	MaxLength int
	// HeadRadius 本帧头部半径（随速度变化）
	HeadRadius float64
	Mesh       TrailMesh
}

// Push 把新位置插到头部，并按 MaxLength 截断
func (t *TrailComponent) Push(p vmath.Vec3) {
	t.Positions = append(t.Positions, vmath.Vec3{})
	copy(t.Positions[1:], t.Positions)
	t.Positions[0] = p
	t.Truncate()
}

// Truncate 按 MaxLength 截断尾部
func (t *TrailComponent) Truncate() {
	if t.MaxLength < 0 {
		t.MaxLength = 0
	}
	if len(t.Positions) > t.MaxLength {
		t.Positions = t.Positions[:t.MaxLength]
	}
}

// Clear 丢弃拖尾（飞行结束时调用）
func (t *TrailComponent) Clear() {
	t.Positions = t.Positions[:0]
	t.MaxLength = 0
	t.Mesh.Reset()
}
