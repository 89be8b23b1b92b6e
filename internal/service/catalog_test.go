package service

import (
	"context"
	"testing"

	"garagedesk/internal/api"
	"garagedesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCatalogAPI struct {
	mock.Mock
}

func (m *mockCatalogAPI) ListCategories(ctx context.Context) ([]models.ServiceCategory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceCategory), args.Error(1)
}

func (m *mockCatalogAPI) CreateCategory(ctx context.Context, name string) (*models.ServiceCategory, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceCategory), args.Error(1)
}

func (m *mockCatalogAPI) RenameCategory(ctx context.Context, id int64, name string) error {
	return m.Called(ctx, id, name).Error(0)
}

func (m *mockCatalogAPI) DeleteCategory(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCatalogAPI) ListServices(ctx context.Context, categoryID int64) ([]models.ServiceItem, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceItem), args.Error(1)
}

func (m *mockCatalogAPI) CreateService(ctx context.Context, categoryID int64, name string, price float64) (*models.ServiceItem, error) {
	args := m.Called(ctx, categoryID, name, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceItem), args.Error(1)
}

func (m *mockCatalogAPI) UpdateService(ctx context.Context, serviceID int64, name string, price float64) error {
	return m.Called(ctx, serviceID, name, price).Error(0)
}

func (m *mockCatalogAPI) DeleteService(ctx context.Context, serviceID int64) error {
	return m.Called(ctx, serviceID).Error(0)
}

func TestAddService(t *testing.T) {
	capi := new(mockCatalogAPI)
	svc := NewCatalogService(capi, zerolog.Nop())

	capi.On("CreateService", mock.Anything, int64(1), "Oil Change", 120.0).
		Return(&models.ServiceItem{ID: 7, CategoryID: 1, Name: "Oil Change", Price: 120}, nil).Once()

	created, err := svc.AddService(context.Background(), 1, "  Oil Change  ", 120)
	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
}

func TestAddServiceValidation(t *testing.T) {
	capi := new(mockCatalogAPI)
	svc := NewCatalogService(capi, zerolog.Nop())

	_, err := svc.AddService(context.Background(), 1, "   ", 120)
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = svc.AddService(context.Background(), 1, "Oil Change", -5)
	assert.ErrorIs(t, err, ErrNegativePrice)

	capi.AssertNotCalled(t, "CreateService", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateServiceValidation(t *testing.T) {
	capi := new(mockCatalogAPI)
	svc := NewCatalogService(capi, zerolog.Nop())

	assert.ErrorIs(t, svc.UpdateService(context.Background(), 7, "", 10), ErrEmptyName)
	assert.ErrorIs(t, svc.UpdateService(context.Background(), 7, "Oil Change", -1), ErrNegativePrice)

	capi.On("UpdateService", mock.Anything, int64(7), "Oil Change", 95.0).Return(nil).Once()
	assert.NoError(t, svc.UpdateService(context.Background(), 7, "Oil Change", 95))
}

func TestAddCategoryPropagatesBackendRejection(t *testing.T) {
	capi := new(mockCatalogAPI)
	svc := NewCatalogService(capi, zerolog.Nop())

	capi.On("CreateCategory", mock.Anything, "Brakes").Return(nil, api.ErrRejected).Once()
	_, err := svc.AddCategory(context.Background(), "Brakes")
	assert.ErrorIs(t, err, api.ErrRejected)
}

func TestRemoveCategory(t *testing.T) {
	capi := new(mockCatalogAPI)
	svc := NewCatalogService(capi, zerolog.Nop())

	capi.On("DeleteCategory", mock.Anything, int64(3)).Return(nil).Once()
	assert.NoError(t, svc.RemoveCategory(context.Background(), 3))
}
