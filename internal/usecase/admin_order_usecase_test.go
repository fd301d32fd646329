package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"oliveshop/internal/domain/model"
	repo "oliveshop/internal/repository"
	"oliveshop/internal/usecase"
)

const adminID int64 = 900

func TestAdminUpdateStatus_PaidToProcessing(t *testing.T) {
	f := newFixture(t)
	o, oil := f.pendingOrder(t, "tok-1")
	f.provider.On("Verify", mock.Anything, "tok-1").Return(paid(o.PaymentReference), nil).Once()
	_, err := f.payments.HandleCallback(t.Context(), "tok-1")
	require.NoError(t, err)

	err = f.adminOrders.UpdateStatus(t.Context(), adminID, o.ID, usecase.AdminUpdateOrderStatusInput{Status: "processing"})
	require.NoError(t, err)

	stored, _ := f.db.order(o.ID)
	assert.Equal(t, model.OrderStatusProcessing, stored.Status)
	assert.Contains(t, f.db.auditActions(), model.AuditActionUpdateOrderStatus)
	// 在庫は決済確定時のまま
	assert.Equal(t, int64(8), f.db.product(oil.ID).Stock)
}

func TestAdminUpdateStatus_RejectsSkippingAhead(t *testing.T) {
	f := newFixture(t)
	o, _ := f.pendingOrder(t, "tok-1")

	err := f.adminOrders.UpdateStatus(t.Context(), adminID, o.ID, usecase.AdminUpdateOrderStatusInput{Status: "SHIPPED"})
	assertKind(t, err, usecase.KindConflict, usecase.CodeInvalidTransition)

	stored, _ := f.db.order(o.ID)
	assert.Equal(t, model.OrderStatusPending, stored.Status)
	assert.Empty(t, f.db.auditActions())
}

func TestAdminUpdateStatus_CannotSettlePayment(t *testing.T) {
	f := newFixture(t)
	o, oil := f.pendingOrder(t, "tok-1")

	for _, status := range []string{"PAID", "failed"} {
		err := f.adminOrders.UpdateStatus(t.Context(), adminID, o.ID, usecase.AdminUpdateOrderStatusInput{Status: status})
		assertKind(t, err, usecase.KindConflict, usecase.CodeInvalidTransition)
	}

	stored, _ := f.db.order(o.ID)
	assert.Equal(t, model.OrderStatusPending, stored.Status)

	//決済の確定は引き続きコールバックで行われる
	f.provider.On("Verify", mock.Anything, "tok-1").Return(paid(o.PaymentReference), nil).Once()
	out, err := f.payments.HandleCallback(t.Context(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, out.Status)
	assert.Equal(t, int64(8), f.db.product(oil.ID).Stock)

	stored, _ = f.db.order(o.ID)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
}

func TestAdminUpdateStatus_CancelPending(t *testing.T) {
	f := newFixture(t)
	o, oil := f.pendingOrder(t, "tok-1")

	err := f.adminOrders.UpdateStatus(t.Context(), adminID, o.ID, usecase.AdminUpdateOrderStatusInput{Status: "CANCELLED"})
	require.NoError(t, err)

	stored, _ := f.db.order(o.ID)
	assert.Equal(t, model.OrderStatusCancelled, stored.Status)
	assert.Equal(t, int64(10), f.db.product(oil.ID).Stock)
}

func TestAdminUpdateStatus_TerminalStatus(t *testing.T) {
	f := newFixture(t)
	o, _ := f.pendingOrder(t, "tok-1")
	f.db.setOrderStatus(o.ID, model.OrderStatusDelivered)

	err := f.adminOrders.UpdateStatus(t.Context(), adminID, o.ID, usecase.AdminUpdateOrderStatusInput{Status: "CANCELLED"})
	assertKind(t, err, usecase.KindConflict, usecase.CodeInvalidTransition)
}

func TestAdminUpdateStatus_SameStatusIsNoop(t *testing.T) {
	f := newFixture(t)
	o, _ := f.pendingOrder(t, "tok-1")

	err := f.adminOrders.UpdateStatus(t.Context(), adminID, o.ID, usecase.AdminUpdateOrderStatusInput{Status: "PENDING"})
	require.NoError(t, err)
	assert.Empty(t, f.db.auditActions())
}

func TestAdminUpdateStatus_Validation(t *testing.T) {
	f := newFixture(t)

	err := f.adminOrders.UpdateStatus(t.Context(), adminID, 1, usecase.AdminUpdateOrderStatusInput{Status: "LOST"})
	assertKind(t, err, usecase.KindValidation, "")

	err = f.adminOrders.UpdateStatus(t.Context(), 0, 1, usecase.AdminUpdateOrderStatusInput{Status: "PAID"})
	assertKind(t, err, usecase.KindUnauthorized, "")

	err = f.adminOrders.UpdateStatus(t.Context(), adminID, 12345, usecase.AdminUpdateOrderStatusInput{Status: "PAID"})
	assertKind(t, err, usecase.KindNotFound, usecase.CodeOrderNotFound)
}

func TestAdminCleanupPending(t *testing.T) {
	f := newFixture(t)
	old, _ := f.pendingOrder(t, "tok-1")
	fresh, _ := f.pendingOrder(t, "tok-2")
	f.db.setOrderCreatedAt(old.ID, baseTime.Add(-2*time.Hour))

	out, err := f.adminOrders.CleanupPending(t.Context(), adminID, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Deleted)

	_, ok := f.db.order(old.ID)
	assert.False(t, ok)
	_, ok = f.db.order(fresh.ID)
	assert.True(t, ok)
	assert.Contains(t, f.db.auditActions(), model.AuditActionCleanupPending)
}

func TestAdminListOrders_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.adminOrders.List(t.Context(), repo.AdminOrderListFilter{Page: 0, Limit: 20})
	assertKind(t, err, usecase.KindValidation, "")

	_, err = f.adminOrders.List(t.Context(), repo.AdminOrderListFilter{Page: 1, Limit: 101})
	assertKind(t, err, usecase.KindValidation, "")

	_, err = f.adminOrders.List(t.Context(), repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: "lost"})
	assertKind(t, err, usecase.KindValidation, "")
}

func TestAdminListOrders_FiltersByStatus(t *testing.T) {
	f := newFixture(t)
	o, _ := f.pendingOrder(t, "tok-1")
	f.pendingOrder(t, "tok-2")
	f.db.setOrderStatus(o.ID, model.OrderStatusPaid)

	out, err := f.adminOrders.List(t.Context(), repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: "paid"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, o.ID, out.Items[0].ID)
	assert.Equal(t, int64(1), out.Total)
}
