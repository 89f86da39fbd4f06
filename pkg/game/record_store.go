package game

import (
	"errors"
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"

	"github.com/decker502/nebula/pkg/vmath"
)

// ErrStoreUnavailable 存储不可用（降级模式下写入被丢弃时不会返回此错误）
var ErrStoreUnavailable = errors.New("record store unavailable")

// RecordPosition 持久化的位置（星云局部坐标）
type RecordPosition struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Vec3 converts the stored position to a vector.
func (p RecordPosition) Vec3() vmath.Vec3 {
	return vmath.V3(p.X, p.Y, p.Z)
}

// PositionOf converts a vector to its stored form.
func PositionOf(v vmath.Vec3) RecordPosition {
	return RecordPosition{X: v.X, Y: v.Y, Z: v.Z}
}

// ParticleRecord 已落定粒子的持久化记录
type ParticleRecord struct {
	ID        string         `yaml:"id"`
	Text      string         `yaml:"text"`
	Color     string         `yaml:"color"`     // 十六进制，如 "#6366f1"
	Timestamp int64          `yaml:"timestamp"` // 毫秒时间戳
	Position  RecordPosition `yaml:"position"`
}

// RecordStore 外部存储契约：整体读、整体写
type RecordStore interface {
	LoadRecords() ([]ParticleRecord, error)
	SaveRecords(records []ParticleRecord) error
}

// AppendRecord 读取 → 追加 → 只保留最新 limit 条 → 写回
//
// 列表按追加顺序排列（旧 → 新）。读取失败时不写回，已有记录保持不变。
func AppendRecord(store RecordStore, rec ParticleRecord, limit int) ([]ParticleRecord, error) {
	if store == nil {
		return nil, ErrStoreUnavailable
	}
	records, err := store.LoadRecords()
	if err != nil {
		log.Printf("[RecordStore] Warning: load before append failed: %v (record %s dropped)", err, rec.ID)
		return nil, fmt.Errorf("failed to load records before appending %s: %w", rec.ID, err)
	}
	records = append(records, rec)
	records = TrimRecords(records, limit)
	if err := store.SaveRecords(records); err != nil {
		return records, fmt.Errorf("failed to append record %s: %w", rec.ID, err)
	}
	return records, nil
}

// TrimRecords 只保留最后 limit 条（limit <= 0 表示不限制）
func TrimRecords(records []ParticleRecord, limit int) []ParticleRecord {
	if limit <= 0 || len(records) <= limit {
		return records
	}
	trimmed := make([]ParticleRecord, limit)
	copy(trimmed, records[len(records)-limit:])
	return trimmed
}

// 存储路径常量
const (
	recordsObject   = "nebula"
	recordsProperty = "settled"
)

// GdataRecordStore 基于 gdata 的跨平台存储
//
// gdataManager 为 nil 时进入降级模式：记录只保存在内存中。
type GdataRecordStore struct {
	gdataManager *gdata.Manager
	fallback     *MemoryRecordStore
}

// NewGdataRecordStore 创建存储
//
// 参数：
//   - gdataManager: gdata 存储管理器，可为 nil（降级模式）
func NewGdataRecordStore(gdataManager *gdata.Manager) *GdataRecordStore {
	return &GdataRecordStore{
		gdataManager: gdataManager,
		fallback:     NewMemoryRecordStore(),
	}
}

// OpenGdataRecordStore 按应用名打开 gdata；失败时返回降级模式的存储和错误
func OpenGdataRecordStore(appName string) (*GdataRecordStore, error) {
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return NewGdataRecordStore(nil), fmt.Errorf("failed to open gdata for %s: %w", appName, err)
	}
	return NewGdataRecordStore(manager), nil
}

// Degraded reports whether records only live in memory.
func (s *GdataRecordStore) Degraded() bool {
	return s.gdataManager == nil
}

// Manager 返回底层 gdata 管理器（降级模式下为 nil），供设置共用
func (s *GdataRecordStore) Manager() *gdata.Manager {
	return s.gdataManager
}

// LoadRecords 读取全部记录；不存在时返回空列表
func (s *GdataRecordStore) LoadRecords() ([]ParticleRecord, error) {
	if s.gdataManager == nil {
		return s.fallback.LoadRecords()
	}
	if !s.gdataManager.ObjectPropExists(recordsObject, recordsProperty) {
		return []ParticleRecord{}, nil
	}

	data, err := s.gdataManager.LoadObjectProp(recordsObject, recordsProperty)
	if err != nil {
		return nil, fmt.Errorf("failed to load settled records: %w", err)
	}

	var records []ParticleRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settled records: %w", err)
	}
	if records == nil {
		records = []ParticleRecord{}
	}
	return records, nil
}

// SaveRecords 整体覆盖写入
func (s *GdataRecordStore) SaveRecords(records []ParticleRecord) error {
	if s.gdataManager == nil {
		return s.fallback.SaveRecords(records)
	}

	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal settled records: %w", err)
	}
	if err := s.gdataManager.SaveObjectProp(recordsObject, recordsProperty, data); err != nil {
		return fmt.Errorf("failed to save settled records: %w", err)
	}
	return nil
}

// MemoryRecordStore 内存存储（测试、无头模式、降级模式）
type MemoryRecordStore struct {
	records []ParticleRecord
	// FailLoad / FailSave 用于模拟 I/O 故障
	FailLoad error
	FailSave error
}

// NewMemoryRecordStore creates an empty in-memory store.
func NewMemoryRecordStore(initial ...ParticleRecord) *MemoryRecordStore {
	return &MemoryRecordStore{records: append([]ParticleRecord(nil), initial...)}
}

func (s *MemoryRecordStore) LoadRecords() ([]ParticleRecord, error) {
	if s.FailLoad != nil {
		return nil, s.FailLoad
	}
	return append([]ParticleRecord{}, s.records...), nil
}

func (s *MemoryRecordStore) SaveRecords(records []ParticleRecord) error {
	if s.FailSave != nil {
		return s.FailSave
	}
	s.records = append(s.records[:0:0], records...)
	return nil
}

// Len returns the number of stored records.
func (s *MemoryRecordStore) Len() int {
	return len(s.records)
}
