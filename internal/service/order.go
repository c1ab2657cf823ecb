package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"marketbay-backend/internal/apperr"
	"marketbay-backend/internal/dto"
	"marketbay-backend/internal/model"
	"marketbay-backend/internal/notify"
	"marketbay-backend/internal/repository"

	"gorm.io/gorm"
)

type OrderService interface {
	// Transition is the only operation allowed to mutate order status. It
	// validates against the state machine, appends exactly one history row,
	// and credits stock back when the order enters cancelled.
	Transition(ctx context.Context, orderID uint, next model.OrderStatus, note string, actorID *uint) (*model.Order, error)
	CancelByCustomer(ctx context.Context, orderNumber string, customerID uint) (*model.Order, error)
	UpdateTracking(ctx context.Context, orderID uint, trackingNumber, trackingURL string) (*model.Order, error)
	UpdateAdminNote(ctx context.Context, orderID uint, note string) (*model.Order, error)
	MarkPaid(ctx context.Context, orderID uint, actorID *uint) (*model.Order, error)
	GetByID(ctx context.Context, orderID uint) (*model.Order, error)
	GetByNumber(ctx context.Context, orderNumber string, customerID *uint) (*model.Order, error)
	Track(ctx context.Context, orderNumber, email string) (*model.Order, error)
	ListForCustomer(ctx context.Context, customerID uint, page, pageSize int) (*dto.Page[dto.OrderListItem], error)
	List(ctx context.Context, filter dto.OrderListFilter) (*dto.Page[dto.OrderListItem], error)
}

// Customers hear about the edges that mean something to them; internal
// moves like processing stay quiet.
var notifiedStatuses = map[model.OrderStatus]bool{
	model.StatusConfirmed: true,
	model.StatusShipped:   true,
	model.StatusDelivered: true,
	model.StatusCancelled: true,
}

type orderServiceImpl struct {
	db           *gorm.DB
	log          *slog.Logger
	orderRepo    repository.OrderRepository
	variantRepo  repository.VariantRepository
	customerRepo repository.CustomerRepository
	notifier     *notify.Notifier
}

func NewOrderService(
	db *gorm.DB,
	log *slog.Logger,
	orderRepo repository.OrderRepository,
	variantRepo repository.VariantRepository,
	customerRepo repository.CustomerRepository,
	notifier *notify.Notifier,
) OrderService {
	return &orderServiceImpl{
		db:           db,
		log:          log,
		orderRepo:    orderRepo,
		variantRepo:  variantRepo,
		customerRepo: customerRepo,
		notifier:     notifier,
	}
}

func (s *orderServiceImpl) Transition(ctx context.Context, orderID uint, next model.OrderStatus, note string, actorID *uint) (*model.Order, error) {
	if !next.Valid() {
		return nil, apperr.Validationf("unknown order status %q", next)
	}

	var updated *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if !order.Status.CanTransitionTo(next) {
			return &apperr.IllegalTransitionError{
				OrderNumber: order.OrderNumber,
				From:        string(order.Status),
				To:          string(next),
			}
		}

		now := time.Now().UTC()
		fields := map[string]interface{}{"status": next}
		switch next {
		case model.StatusShipped:
			fields["shipped_at"] = now
		case model.StatusDelivered:
			fields["delivered_at"] = now
		case model.StatusCancelled:
			fields["cancelled_at"] = now
		}

		// The write re-checks the status it read: if a concurrent transition
		// moved the order between the read and this statement, zero rows
		// match and the whole transition rolls back instead of applying twice.
		moved, err := s.orderRepo.UpdateStatusGuarded(ctx, tx, order.ID, order.Status, fields)
		if err != nil {
			return err
		}
		if !moved {
			current, err := s.orderRepo.FindByID(ctx, tx, order.ID)
			if err != nil {
				return err
			}
			return &apperr.IllegalTransitionError{
				OrderNumber: order.OrderNumber,
				From:        string(current.Status),
				To:          string(next),
			}
		}

		if err := s.orderRepo.CreateHistory(ctx, tx, &model.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    next,
			Note:      note,
			CreatedBy: actorID,
		}); err != nil {
			return err
		}

		if next == model.StatusCancelled {
			if err := s.restock(ctx, tx, order); err != nil {
				return err
			}
		}

		updated, err = s.orderRepo.FindByID(ctx, tx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if notifiedStatuses[next] {
		if email := s.customerEmail(ctx, updated); email != "" {
			s.notifier.Publish(notify.Event{
				Type:        notify.EventOrderStatusChanged,
				OrderNumber: updated.OrderNumber,
				Email:       email,
				Status:      string(next),
			})
		}
	}

	s.log.Info("order status changed",
		"order_number", updated.OrderNumber,
		"status", string(next),
	)
	return updated, nil
}

// restock credits back exactly the quantities debited at placement, one
// ledger entry per variant-bearing line, tagged with the order.
func (s *orderServiceImpl) restock(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	for _, item := range order.Items {
		if item.VariantID == nil {
			continue
		}
		orderID := order.ID
		_, err := s.variantRepo.Credit(ctx, tx, *item.VariantID, item.Quantity,
			model.ReasonOrderCancelled, &orderID,
			fmt.Sprintf("Order %s cancelled", order.OrderNumber))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *orderServiceImpl) CancelByCustomer(ctx context.Context, orderNumber string, customerID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByNumber(ctx, orderNumber, &customerID)
	if err != nil {
		return nil, err
	}
	return s.Transition(ctx, order.ID, model.StatusCancelled, "Cancelled by customer", &customerID)
}

// UpdateTracking does not go through the state machine and appends no history.
func (s *orderServiceImpl) UpdateTracking(ctx context.Context, orderID uint, trackingNumber, trackingURL string) (*model.Order, error) {
	fields := map[string]interface{}{"tracking_number": trackingNumber}
	if trackingURL != "" {
		fields["tracking_url"] = trackingURL
	}
	if err := s.orderRepo.UpdateFields(ctx, s.db, orderID, fields); err != nil {
		return nil, err
	}
	return s.orderRepo.FindByID(ctx, nil, orderID)
}

func (s *orderServiceImpl) UpdateAdminNote(ctx context.Context, orderID uint, note string) (*model.Order, error) {
	if err := s.orderRepo.UpdateFields(ctx, s.db, orderID, map[string]interface{}{"admin_note": note}); err != nil {
		return nil, err
	}
	return s.orderRepo.FindByID(ctx, nil, orderID)
}

// MarkPaid flips the independent payment axis and leaves an informational
// history row at the current status.
func (s *orderServiceImpl) MarkPaid(ctx context.Context, orderID uint, actorID *uint) (*model.Order, error) {
	var updated *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if err := s.orderRepo.UpdateFields(ctx, tx, order.ID, map[string]interface{}{
			"payment_status": model.PaymentPaid,
		}); err != nil {
			return err
		}

		if err := s.orderRepo.CreateHistory(ctx, tx, &model.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    order.Status,
			Note:      "Payment marked as paid",
			CreatedBy: actorID,
		}); err != nil {
			return err
		}

		updated, err = s.orderRepo.FindByID(ctx, tx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *orderServiceImpl) GetByID(ctx context.Context, orderID uint) (*model.Order, error) {
	return s.orderRepo.FindByID(ctx, nil, orderID)
}

func (s *orderServiceImpl) GetByNumber(ctx context.Context, orderNumber string, customerID *uint) (*model.Order, error) {
	return s.orderRepo.FindByNumber(ctx, orderNumber, customerID)
}

// Track is the public tracking view: the caller must present the email the
// order belongs to, registered or guest.
func (s *orderServiceImpl) Track(ctx context.Context, orderNumber, email string) (*model.Order, error) {
	order, err := s.orderRepo.FindByNumber(ctx, orderNumber, nil)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFoundf("no order found with this order number and email")
	}
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(email, s.customerEmail(ctx, order)) {
		return nil, apperr.NotFoundf("no order found with this order number and email")
	}
	return order, nil
}

func (s *orderServiceImpl) customerEmail(ctx context.Context, order *model.Order) string {
	if order.CustomerID != nil {
		customer, err := s.customerRepo.FindByID(ctx, *order.CustomerID)
		if err != nil {
			return ""
		}
		return customer.Email
	}
	return order.GuestEmail
}

func (s *orderServiceImpl) ListForCustomer(ctx context.Context, customerID uint, page, pageSize int) (*dto.Page[dto.OrderListItem], error) {
	page, pageSize = normalizePage(page, pageSize)
	orders, total, err := s.orderRepo.ListByCustomer(ctx, customerID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	return buildOrderPage(orders, total, page, pageSize), nil
}

func (s *orderServiceImpl) List(ctx context.Context, filter dto.OrderListFilter) (*dto.Page[dto.OrderListItem], error) {
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return buildOrderPage(orders, total, filter.Page, filter.PageSize), nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func buildOrderPage(orders []*model.Order, total int64, page, pageSize int) *dto.Page[dto.OrderListItem] {
	items := make([]dto.OrderListItem, 0, len(orders))
	for _, order := range orders {
		name := strings.TrimSpace(order.ShippingFirstName + " " + order.ShippingLastName)
		items = append(items, dto.OrderListItem{
			ID:            order.ID,
			OrderNumber:   order.OrderNumber,
			Status:        string(order.Status),
			PaymentStatus: string(order.PaymentStatus),
			Total:         order.Total,
			ItemCount:     len(order.Items),
			CustomerName:  name,
			CreatedAt:     order.CreatedAt,
		})
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &dto.Page[dto.OrderListItem]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
