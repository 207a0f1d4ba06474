package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	app "github.com/turtacn/keyip-smiles/internal/application/smiles"
	"github.com/turtacn/keyip-smiles/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockSmilesService struct {
	mock.Mock
}

func (m *mockSmilesService) Parse(ctx context.Context, input *app.ParseInput) (*app.ParseOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*app.ParseOutput), args.Error(1)
}

func (m *mockSmilesService) ParseReaction(ctx context.Context, input *app.ReactionInput) (*app.ReactionOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*app.ReactionOutput), args.Error(1)
}

func (m *mockSmilesService) ParseBatch(ctx context.Context, input *app.BatchInput) (*app.BatchOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*app.BatchOutput), args.Error(1)
}

func (m *mockSmilesService) InvalidateCache(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSmilesService) Ready(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newTestRouter(h *SmilesHandler, bodyLimit int64) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.BodyLimit(bodyLimit))
	r.POST("/parse", h.Parse)
	r.POST("/reaction", h.ParseReaction)
	r.POST("/batch", h.ParseBatch)
	r.DELETE("/cache", h.InvalidateCache)
	return r
}
