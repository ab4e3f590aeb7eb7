package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/mhobbs/tradelog/internal/models"
)

// ErrUserNotFound is returned by UserStore.GetUser when the id does not resolve.
var ErrUserNotFound = errors.New("user not found")

// TradeListOptions controls filtering and pagination for trade listings.
// Page defaults to 1; PerPage is clamped to [1,100] with a default of 20.
type TradeListOptions struct {
	Page    int
	PerPage int
	Query   string // case-insensitive substring match on symbol OR name
	Status  string // "", "open" or "closed"
}

// TradeUpdate is a full replacement of a trade's price/share/date fields.
type TradeUpdate struct {
	BuyPrice  float64
	SellPrice *float64
	Shares    float64
	Leverage  float64
	BoughtAt  *time.Time
	SoldAt    *time.Time
}

// TradeStore persists trades.
type TradeStore interface {
	List(ctx context.Context, opts TradeListOptions) ([]*models.Trade, int, error)
	Get(ctx context.Context, id string) (*models.Trade, error)
	Create(ctx context.Context, trade *models.Trade) error
	Update(ctx context.Context, id string, upd TradeUpdate) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	// BulkDelete removes all trades whose ids are in the given set as a
	// single delete call. It is best-effort and not transactional.
	BulkDelete(ctx context.Context, ids []string) (int, error)
}

// AchievementListOptions controls filtering and pagination for achievements.
type AchievementListOptions struct {
	Page    int
	PerPage int
	Query   string // case-insensitive substring match on title
}

// AchievementUpdate is a partial update: nil fields are left untouched.
// ClearLogo distinguishes an explicit null logo from an absent one.
type AchievementUpdate struct {
	Title       *string
	Description *string
	Logo        *string
	ClearLogo   bool
}

// AchievementStore persists achievements.
type AchievementStore interface {
	List(ctx context.Context, opts AchievementListOptions) ([]*models.Achievement, int, error)
	Get(ctx context.Context, id string) (*models.Achievement, error)
	Create(ctx context.Context, achievement *models.Achievement) error
	Update(ctx context.Context, id string, upd AchievementUpdate) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ContentStore persists singleton free-text documents such as the about page.
type ContentStore interface {
	GetAbout(ctx context.Context) (string, error)
	PutAbout(ctx context.Context, content string) error
}

// UserStore persists user accounts.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, userID string) error
}

// StorageManager provides access to all stores over a single connection
// established at startup and injected into each consumer.
type StorageManager interface {
	Trades() TradeStore
	Achievements() AchievementStore
	Content() ContentStore
	Users() UserStore
	Close() error
}
