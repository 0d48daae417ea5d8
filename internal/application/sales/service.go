// Package sales implements the sales order workflow: priced creation,
// wholesale item replacement and the one-way status change.
package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/application/coordinator"
	"github.com/rsjrcat/invoice-server-main-hd/internal/application/notification"
	apppricing "github.com/rsjrcat/invoice-server-main-hd/internal/application/pricing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/numbering"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SalesOrderService handles sales order business operations
type SalesOrderService struct {
	orderRepo      sales.SalesOrderRepository
	txScope        coordinator.TransactionScope
	notifier       notification.Notifier
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(
	orderRepo sales.SalesOrderRepository,
	txScope coordinator.TransactionScope,
	notifier notification.Notifier,
	logger *zap.Logger,
) *SalesOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesOrderService{
		orderRepo: orderRepo,
		txScope:   txScope,
		notifier:  notifier,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SalesOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create prices the requested lines and stores a PENDING order under the
// tenant's next order number. Stock is not touched.
func (s *SalesOrderService) Create(ctx context.Context, tenantID uuid.UUID, req CreateSalesOrderRequest) (*SalesOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "SalesOrderService", "Create",
		telemetry.WithAttribute(telemetry.AttrTenantID, tenantID),
		telemetry.WithAttribute(telemetry.AttrLineCount, len(req.Items)),
	)
	defer span.End()

	inputs, codes := toLineInputs(req.Items)

	var order *sales.SalesOrder
	err := s.txScope.Execute(ctx, func(repos coordinator.Repositories) error {
		if _, err := repos.Customers().FindByIDForTenant(ctx, tenantID, req.CustomerID); err != nil {
			return err
		}

		priced, err := apppricing.Quote(ctx, repos.Items(), tenantID, inputs)
		if err != nil {
			return err
		}

		number, err := repos.Counters().NextNumber(ctx, tenantID, numbering.KindOrder)
		if err != nil {
			return err
		}

		order, err = sales.NewSalesOrder(tenantID, req.CustomerID, number, priced, codes, sales.Details{
			Notes:         req.Notes,
			Terms:         req.Terms,
			PlaceOfSupply: req.PlaceOfSupply,
		})
		if err != nil {
			return err
		}
		return repos.Orders().Create(ctx, order)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.AttrDocumentID, order.ID,
		telemetry.AttrDocumentNo, order.OrderNumber,
	)
	telemetry.SetOK(span)

	s.logger.Info("sales order created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", order.ID.String()),
		zap.Int64("order_number", order.OrderNumber),
		zap.Int64("total", order.Total),
	)
	s.publishEvents(ctx, order)

	resp := ToSalesOrderResponse(order)
	return &resp, nil
}

// GetByID retrieves a sales order with its items
func (s *SalesOrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToSalesOrderResponse(order)
	return &resp, nil
}

// List returns a page of orders, newest first
func (s *SalesOrderService) List(ctx context.Context, tenantID uuid.UUID, filter SalesOrderListFilter) (shared.Paginated[SalesOrderResponse], error) {
	page := shared.Page{Limit: filter.Limit, Offset: filter.Offset}.Normalize()
	domainFilter := sales.OrderFilter{Page: page, From: filter.StartDate}

	if filter.Status != "" {
		status, err := sales.ParseOrderStatus(filter.Status)
		if err != nil {
			return shared.Paginated[SalesOrderResponse]{}, err
		}
		domainFilter.Status = &status
	}
	if filter.CustomerID != "" {
		id, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			return shared.Paginated[SalesOrderResponse]{}, shared.NewValidationError("Invalid customer ID",
				shared.ErrorDetail{Field: "customerId", Message: "must be a UUID", Value: filter.CustomerID})
		}
		domainFilter.CustomerID = &id
	}
	if filter.EndDate != nil {
		// endDate is inclusive of the whole day
		end := filter.EndDate.Add(24*time.Hour - time.Nanosecond)
		domainFilter.To = &end
	}

	orders, total, err := s.orderRepo.List(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[SalesOrderResponse]{}, err
	}
	return shared.NewPaginated(ToSalesOrderResponses(orders), total, page), nil
}

// Update patches the order. When items are given every line is replaced and
// the totals are recomputed in the same transaction as the scalar patch.
func (s *SalesOrderService) Update(ctx context.Context, tenantID, orderID uuid.UUID, req UpdateSalesOrderRequest) (*SalesOrderResponse, error) {
	var order *sales.SalesOrder
	err := s.txScope.Execute(ctx, func(repos coordinator.Repositories) error {
		var err error
		order, err = repos.Orders().LockByIDForTenant(ctx, tenantID, orderID)
		if err != nil {
			return err
		}

		if req.CustomerID != nil && *req.CustomerID != order.CustomerID {
			if _, err := repos.Customers().FindByIDForTenant(ctx, tenantID, *req.CustomerID); err != nil {
				return err
			}
		}

		if err := order.ApplyPatch(sales.DetailsPatch{
			CustomerID:    req.CustomerID,
			Notes:         req.Notes,
			Terms:         req.Terms,
			PlaceOfSupply: req.PlaceOfSupply,
		}); err != nil {
			return err
		}

		if req.Items != nil {
			inputs, codes := toLineInputs(req.Items)
			priced, err := apppricing.Quote(ctx, repos.Items(), tenantID, inputs)
			if err != nil {
				return err
			}
			if err := order.ReplaceItems(priced, codes); err != nil {
				return err
			}
			if err := repos.Orders().ReplaceItems(ctx, order); err != nil {
				return err
			}
		}

		return repos.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sales order updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", orderID.String()),
		zap.Bool("items_replaced", req.Items != nil),
	)
	resp := ToSalesOrderResponse(order)
	return &resp, nil
}

// UpdateStatus moves the order to the given status. Leaving PENDING is
// final; stock is not affected.
func (s *SalesOrderService) UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, rawStatus string) (*SalesOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "SalesOrderService", "UpdateStatus",
		telemetry.WithAttribute(telemetry.AttrTenantID, tenantID),
		telemetry.WithAttribute(telemetry.AttrDocumentID, orderID),
		telemetry.WithAttribute(telemetry.AttrStatusTo, rawStatus),
	)
	defer span.End()

	target, err := sales.ParseOrderStatus(rawStatus)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var order *sales.SalesOrder
	err = s.txScope.Execute(ctx, func(repos coordinator.Repositories) error {
		var err error
		order, err = repos.Orders().LockByIDForTenant(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if err := order.ChangeStatus(target); err != nil {
			return err
		}
		return repos.Orders().Update(ctx, order)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)

	s.logger.Info("sales order status changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("status", target.String()),
	)
	s.publishEvents(ctx, order)

	resp := ToSalesOrderResponse(order)
	return &resp, nil
}

// Mail sends the order to its customer. A delivery failure does not fail
// the call; it comes back as a warning next to the order.
func (s *SalesOrderService) Mail(ctx context.Context, tenantID, orderID uuid.UUID) (*SalesOrderResponse, []string, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if err := s.notifier.Notify(ctx, notification.FromSalesOrder(order)); err != nil {
		s.logger.Warn("failed to mail sales order",
			zap.String("tenant_id", tenantID.String()),
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		warnings = append(warnings, "Sales order email could not be sent: "+err.Error())
	}

	resp := ToSalesOrderResponse(order)
	return &resp, warnings, nil
}

func (s *SalesOrderService) publishEvents(ctx context.Context, order *sales.SalesOrder) {
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish sales order events",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}
