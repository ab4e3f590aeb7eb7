// Package memory provides an in-memory implementation of the storage
// interfaces. It backs handler tests and small local setups where running
// SurrealDB is not worth the trouble. All stores are safe for concurrent use.
package memory

import (
	"github.com/mhobbs/tradelog/internal/common"
	"github.com/mhobbs/tradelog/internal/interfaces"
)

// Manager implements interfaces.StorageManager over in-process maps.
type Manager struct {
	logger *common.Logger

	tradeStore       *TradeStore
	achievementStore *AchievementStore
	contentStore     *ContentStore
	userStore        *UserStore
}

// NewManager creates a new in-memory StorageManager.
func NewManager(logger *common.Logger) *Manager {
	return &Manager{
		logger:           logger,
		tradeStore:       NewTradeStore(),
		achievementStore: NewAchievementStore(),
		contentStore:     NewContentStore(),
		userStore:        NewUserStore(),
	}
}

func (m *Manager) Trades() interfaces.TradeStore {
	return m.tradeStore
}

func (m *Manager) Achievements() interfaces.AchievementStore {
	return m.achievementStore
}

func (m *Manager) Content() interfaces.ContentStore {
	return m.contentStore
}

func (m *Manager) Users() interfaces.UserStore {
	return m.userStore
}

func (m *Manager) Close() error {
	return nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
