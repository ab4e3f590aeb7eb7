package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mhobbs/tradelog/internal/clients/marketdata"
	"github.com/mhobbs/tradelog/internal/common"
	"github.com/mhobbs/tradelog/internal/interfaces"
	"github.com/mhobbs/tradelog/internal/models"
	surrealstorage "github.com/mhobbs/tradelog/internal/storage/surrealdb"
)

// App holds the initialized config, storage and clients shared by the server.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.StorageManager
	MarketData  interfaces.MarketDataClient
	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp loads configuration and initializes storage and clients.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Load configuration - check provided path, TRADELOG_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("TRADELOG_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "tradelog.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/tradelog.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := surrealstorage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var marketClient interfaces.MarketDataClient
	if config.Clients.MarketData.APIKey != "" {
		marketClient = marketdata.NewClient(config.Clients.MarketData.APIKey,
			marketdata.WithBaseURL(config.Clients.MarketData.BaseURL),
			marketdata.WithLogger(logger),
			marketdata.WithRateLimit(config.Clients.MarketData.RateLimit),
			marketdata.WithTimeout(config.Clients.MarketData.GetTimeout()),
		)
	} else {
		logger.Warn().Msg("Market data API key not configured - symbol search and history will be unavailable")
	}

	a := &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		MarketData:  marketClient,
		StartupTime: startupStart,
	}

	if err := a.seedAdminUser(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to seed admin user: %w", err)
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// seedAdminUser creates the admin account from config when it does not exist.
// An existing account is never overwritten, so password changes survive restarts.
func (a *App) seedAdminUser(ctx context.Context) error {
	auth := a.Config.Auth
	if auth.AdminUser == "" || auth.AdminPassword == "" {
		return nil
	}

	if _, err := a.Storage.Users().GetUser(ctx, auth.AdminUser); err == nil {
		return nil
	}

	passwordBytes := []byte(auth.AdminPassword)
	if len(passwordBytes) > 72 {
		passwordBytes = passwordBytes[:72]
	}
	hash, err := bcrypt.GenerateFromPassword(passwordBytes, 10)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	user := &models.User{
		UserID:       auth.AdminUser,
		Email:        auth.AdminEmail,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		CreatedAt:    time.Now(),
	}
	if err := a.Storage.Users().SaveUser(ctx, user); err != nil {
		return err
	}

	a.Logger.Info().Str("user", auth.AdminUser).Msg("Admin user seeded")
	return nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
