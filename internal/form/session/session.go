package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/builder"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/layout"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/schema"
)

// Session 单个连接的编辑状态，只在所属连接的读循环中访问
type Session struct {
	ID           string
	Builder      *builder.Builder
	Kind         DocKind
	DocID        string
	Dirty        bool
	CreatedAt    time.Time
	LastActiveAt time.Time

	// 表单文档
	FormName       string
	CollectionName string
	Styles         schema.FormStyles

	// 布局文档
	LayoutName   string
	LayoutType   layout.Type
	Category     string
	LayoutConfig json.RawMessage
}

// Touch 更新最后活跃时间
func (s *Session) Touch() {
	s.LastActiveAt = time.Now()
}

// Title 当前文档标题
func (s *Session) Title() string {
	if s.Kind == DocLayout {
		return s.LayoutName
	}
	return s.FormName
}

// reset 切换到新文档，清空历史与选中
func (s *Session) reset(kind DocKind, id string, fields schema.FieldList) {
	s.Kind = kind
	s.DocID = id
	s.Dirty = false
	s.FormName, s.CollectionName = "", ""
	s.Styles = schema.DefaultStyles()
	s.LayoutName, s.LayoutType, s.Category, s.LayoutConfig = "", "", "", nil
	s.Builder.Reset(fields)
}

// Manager 跟踪在线会话
type Manager struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	historyLimit int
}

// NewManager historyLimit 为每个会话的撤销深度
func NewManager(historyLimit int) *Manager {
	return &Manager{
		sessions:     make(map[string]*Session),
		historyLimit: historyLimit,
	}
}

// Create 新建空白表单会话
func (m *Manager) Create() *Session {
	now := time.Now()
	s := &Session{
		ID:           uuid.New().String(),
		Builder:      builder.New(nil, builder.WithHistoryLimit(m.historyLimit)),
		Kind:         DocForm,
		Styles:       schema.DefaultStyles(),
		CreatedAt:    now,
		LastActiveAt: now,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get 查找会话
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Remove 连接关闭时移除
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count 在线会话数
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
