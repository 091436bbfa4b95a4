package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/order-system/internal/model"
	"github.com/d60-Lab/order-system/internal/repository"
)

func newCustomerFixture(t *testing.T) (*CustomerService, *model.Customer) {
	t.Helper()
	db := setupTestDB(t)
	customer := &model.Customer{
		ID: uuid.New().String(), Subject: "sub-1", Email: "jane@example.com",
		FullName: "Jane Doe", IsActive: true,
	}
	require.NoError(t, db.Create(customer).Error)
	return NewCustomerService(repository.NewCustomerRepository(db)), customer
}

func TestUpdateProfilePhone(t *testing.T) {
	svc, customer := newCustomerFixture(t)
	ctx := context.Background()

	// 外部断言未携带手机号，登录后补全
	updated, err := svc.UpdateProfile(ctx, customer.ID, ProfileInput{Phone: "+254700000001"})
	require.NoError(t, err)
	assert.Equal(t, "+254700000001", updated.Phone)

	got, err := svc.Get(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "+254700000001", got.Phone)
	assert.Equal(t, "Jane Doe", got.FullName)
}

func TestUpdateProfileKeepsEmptyFields(t *testing.T) {
	svc, customer := newCustomerFixture(t)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, customer.ID, ProfileInput{Phone: "+254700000001"})
	require.NoError(t, err)

	// 只改姓名，手机号保持不变
	updated, err := svc.UpdateProfile(ctx, customer.ID, ProfileInput{FullName: "Jane A. Doe"})
	require.NoError(t, err)
	assert.Equal(t, "Jane A. Doe", updated.FullName)
	assert.Equal(t, "+254700000001", updated.Phone)
}

func TestUpdateProfileInvalidPhone(t *testing.T) {
	svc, customer := newCustomerFixture(t)
	ctx := context.Background()
	var vErr *ValidationError

	for _, phone := range []string{"abc", "12345", "+2547000-0001", "+2547000000000000001"} {
		_, err := svc.UpdateProfile(ctx, customer.ID, ProfileInput{Phone: phone})
		assert.True(t, errors.As(err, &vErr), "phone %q should be rejected", phone)
	}
}

func TestUpdateProfileUnknownCustomer(t *testing.T) {
	svc, _ := newCustomerFixture(t)
	_, err := svc.UpdateProfile(context.Background(), "no-such-id", ProfileInput{Phone: "+254700000001"})
	assert.ErrorIs(t, err, ErrNotFound)
}
