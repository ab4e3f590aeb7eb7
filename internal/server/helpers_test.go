package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mhobbs/tradelog/internal/app"
	"github.com/mhobbs/tradelog/internal/common"
	"github.com/mhobbs/tradelog/internal/interfaces"
	"github.com/mhobbs/tradelog/internal/models"
	"github.com/mhobbs/tradelog/internal/storage/memory"
)

// fakeMarketClient is a canned MarketDataClient for handler tests.
type fakeMarketClient struct {
	matches []interfaces.SymbolMatch
	closes  []float64
	err     error
}

func (f *fakeMarketClient) SearchSymbols(ctx context.Context, query string) ([]interfaces.SymbolMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func (f *fakeMarketClient) GetHistoricalCloses(ctx context.Context, symbol string, rangeDays int) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.closes, nil
}

// newTestServer creates a test server backed by in-memory storage and a
// canned market client.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := common.NewSilentLogger()
	cfg := common.NewDefaultConfig()

	mgr := memory.NewManager(logger)
	t.Cleanup(func() { mgr.Close() })

	a := &app.App{
		Config:     cfg,
		Logger:     logger,
		Storage:    mgr,
		MarketData: &fakeMarketClient{closes: []float64{10, 11, 12}},
	}
	return &Server{app: a, logger: logger}
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return bytes.NewBuffer(data)
}

// asAdmin attaches an admin identity to the request, standing in for a
// validated bearer token.
func asAdmin(req *http.Request) *http.Request {
	uc := &common.UserContext{UserID: "admin", Role: models.RoleAdmin}
	return req.WithContext(common.WithUserContext(req.Context(), uc))
}

// asRole attaches an arbitrary identity to the request.
func asRole(req *http.Request, role string) *http.Request {
	uc := &common.UserContext{UserID: "someone", Role: role}
	return req.WithContext(common.WithUserContext(req.Context(), uc))
}

// seedUser stores a user with a bcrypt-hashed password.
func seedUser(t *testing.T, srv *Server, username, password, role string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		UserID:       username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now(),
	}
	if err := srv.app.Storage.Users().SaveUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
}
