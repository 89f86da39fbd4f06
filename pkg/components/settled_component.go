package components

// SettledComponent 已落定粒子（用户发射后加入星云的点）
//
// 创建后不再修改；位置保存在 TransformComponent（Parent = ParentField）。
type SettledComponent struct {
	ID        string
	Text      string
	ColorHex  string
	Timestamp int64 // 毫秒时间戳
}
