package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/linemk/ecofinds/internal/domain/models"
	"github.com/linemk/ecofinds/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_Counters(t *testing.T) {
	users := newFakeUserRepo()
	products := newFakeProductRepo()
	carts := newFakeCartRepo(products)
	orders := newFakeOrderRepo()
	ctx := context.Background()

	users.add(1, "u@e.com")
	products.add(1, "Lamp", 100)
	products.add(1, "Desk", 100)
	gone := products.add(1, "Chair", 100)
	require.NoError(t, products.SoftDeleteProduct(ctx, gone.ID))
	other := products.add(2, "Bottle", 100)

	require.NoError(t, carts.AddItem(ctx, 1, other.ID, 3, models.MaxQuantity))
	_, err := orders.CreateOrderTx(ctx, nil, 1, 100)
	require.NoError(t, err)

	svc := service.NewDashboardService(newTestLogger(), users, products, orders, carts)
	d, err := svc.GetDashboard(ctx, session(1))
	require.NoError(t, err)

	assert.Equal(t, "u@e.com", d.User.Email)
	assert.Equal(t, 2, d.ListingsCount, "deleted listings are not counted")
	assert.Equal(t, 1, d.OrdersCount)
	assert.Equal(t, 3, d.CartCount)
}

func TestDashboard_UserNotFound(t *testing.T) {
	products := newFakeProductRepo()
	svc := service.NewDashboardService(newTestLogger(), newFakeUserRepo(), products, newFakeOrderRepo(), newFakeCartRepo(products))

	_, err := svc.GetDashboard(context.Background(), session(999))
	assert.Error(t, err)

	_, err = svc.GetDashboard(context.Background(), nil)
	assert.True(t, errors.Is(err, service.ErrUnauthorized))
}
