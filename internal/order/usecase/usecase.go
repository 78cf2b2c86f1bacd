package usecase

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	"github.com/fekuna/omnipos-restaurant-service/internal/auth"
	"github.com/fekuna/omnipos-restaurant-service/internal/inventory"
	invDto "github.com/fekuna/omnipos-restaurant-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/menu"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/internal/order"
	"github.com/fekuna/omnipos-restaurant-service/internal/order/dto"
	"github.com/fekuna/omnipos-restaurant-service/pkg/database"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/fekuna/omnipos-restaurant-service/pkg/observability"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	maxCustomerNameLength = 100
	maxLineQuantity       = 1000
	publishTimeout        = 2 * time.Second

	// maxItemConsumption caps the units one order may take from a single item, summed
	// across lines and side options.
	maxItemConsumption = 10000
)

type orderUseCase struct {
	repo    order.Repository
	menu    menu.UseCase
	stock   inventory.UseCase
	txm     *database.TxManager
	catalog inventory.CatalogInvalidator
	events  order.EventPublisher
	tracer  trace.Tracer
	logger  logger.ZapLogger
	now     func() time.Time
}

func NewOrderUseCase(
	repo order.Repository,
	menuUC menu.UseCase,
	stock inventory.UseCase,
	txm *database.TxManager,
	catalog inventory.CatalogInvalidator,
	events order.EventPublisher,
	log logger.ZapLogger,
) order.UseCase {
	return &orderUseCase{
		repo:    repo,
		menu:    menuUC,
		stock:   stock,
		txm:     txm,
		catalog: catalog,
		events:  events,
		tracer:  observability.Tracer("order"),
		logger:  log.Named("order"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (o *model.Order, err error) {
	ctx, span := uc.tracer.Start(ctx, "order.create")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(apperror.KindOf(err)))
		}
		span.End()
	}()

	payment, err := validateCreate(input)
	if err != nil {
		return nil, err
	}

	err = uc.txm.WithTx(ctx, func(ctx context.Context) error {
		priced, err := uc.price(ctx, input)
		if err != nil {
			return err
		}

		if input.ClientTotal != nil && !input.ClientTotal.Equal(priced.total) {
			uc.logger.Debug("client total differs from computed total",
				zap.String("client_total", input.ClientTotal.String()),
				zap.String("computed_total", priced.total.String()),
			)
		}

		o = &model.Order{
			CustomerName:  strings.TrimSpace(input.CustomerName),
			Total:         priced.total,
			Status:        model.StatusPending,
			PaymentMethod: payment,
			CreatedBy:     input.Actor,
			CreatedAt:     uc.now(),
		}
		if err := uc.repo.Create(ctx, o); err != nil {
			return apperror.Internal(err, "create order")
		}

		// Ascending id order keeps concurrent multi-item orders from interleaving their reservations.
		for _, itemID := range priced.reserveOrder() {
			if _, err := uc.stock.ReserveStock(ctx, &invDto.ReserveStockInput{
				MenuItemID: itemID,
				Quantity:   priced.consumption[itemID],
				OrderID:    &o.ID,
				Actor:      input.Actor,
			}); err != nil {
				return err
			}
		}

		for i := range priced.lines {
			priced.lines[i].OrderID = o.ID
		}
		if err := uc.repo.CreateItems(ctx, priced.lines); err != nil {
			return apperror.Internal(err, "create order items")
		}
		o.Items = priced.lines
		return nil
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			uc.logger.Error("order creation failed", zap.Error(err))
		}
		return nil, err
	}

	uc.catalog.Invalidate(ctx)
	span.SetAttributes(
		attribute.Int64("order.id", o.ID),
		attribute.Int("order.lines", len(o.Items)),
		attribute.String("order.total", o.Total.String()),
	)
	uc.logger.Info("order created",
		zap.Int64("order_id", o.ID),
		zap.String("total", o.Total.String()),
		zap.String("created_by", o.CreatedBy),
	)
	uc.publish(ctx, o.ID, dto.EventOrderCreated, createdPayload(o))
	return o, nil
}

type pricedOrder struct {
	lines       []model.OrderItem
	total       decimal.Decimal
	consumption map[int64]int
}

func (p *pricedOrder) reserveOrder() []int64 {
	ids := make([]int64, 0, len(p.consumption))
	for id := range p.consumption {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// price resolves every line against the catalog and totals the order. Stock taken by a
// side option's linked item is folded into the consumption map.
func (uc *orderUseCase) price(ctx context.Context, input *dto.CreateOrderInput) (*pricedOrder, error) {
	ids := make([]int64, 0, len(input.Lines))
	for _, l := range input.Lines {
		ids = append(ids, l.MenuItemID)
	}
	items, err := uc.menu.GetMenuItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	p := &pricedOrder{
		lines:       make([]model.OrderItem, 0, len(input.Lines)),
		total:       decimal.Zero,
		consumption: make(map[int64]int),
	}
	for _, l := range input.Lines {
		item, ok := items[l.MenuItemID]
		if !ok {
			return nil, apperror.UnknownItem(l.MenuItemID)
		}

		surcharge := decimal.Zero
		var side *string
		sideName := strings.TrimSpace(l.SideOption)
		switch {
		case sideName != "":
			if item.Category != model.CategoryMeat {
				return nil, apperror.New(apperror.KindInvalidSideOption,
					"%s is not a %s item and takes no side options", item.Name, model.CategoryMeat).ForItem(item.ID)
			}
			opt, ok := item.SideOption(sideName)
			if !ok {
				return nil, apperror.New(apperror.KindInvalidSideOption,
					"%q is not a side option of %s", sideName, item.Name).ForItem(item.ID)
			}
			surcharge = opt.Surcharge
			name := opt.Name
			side = &name
			if opt.ConsumesItemID != nil {
				if err := p.consume(*opt.ConsumesItemID, l.Quantity); err != nil {
					return nil, err
				}
			}
		case item.RequiresSide:
			return nil, apperror.New(apperror.KindInvalidSideOption, "%s requires a side option", item.Name).ForItem(item.ID)
		}

		unit := item.Price.Add(surcharge)
		line := model.OrderItem{
			MenuItemID:    item.ID,
			MenuItemName:  item.Name,
			Category:      item.Category,
			Quantity:      l.Quantity,
			BasePrice:     item.Price,
			SideOption:    side,
			SideSurcharge: surcharge,
			UnitPrice:     unit,
		}
		p.lines = append(p.lines, line)
		p.total = p.total.Add(line.LineTotal())
		if err := p.consume(item.ID, l.Quantity); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *pricedOrder) consume(itemID int64, qty int) error {
	if qty > maxItemConsumption-p.consumption[itemID] {
		return apperror.New(apperror.KindValidation,
			"order takes more than %d units of menu item %d", maxItemConsumption, itemID).ForItem(itemID)
	}
	p.consumption[itemID] += qty
	return nil
}

func validateCreate(input *dto.CreateOrderInput) (model.PaymentMethod, error) {
	if len(input.Lines) == 0 {
		return "", apperror.New(apperror.KindValidation, "an order needs at least one item")
	}
	for i, l := range input.Lines {
		if l.Quantity <= 0 {
			return "", apperror.New(apperror.KindValidation, "item %d: quantity must be positive", i+1)
		}
		if l.Quantity > maxLineQuantity {
			return "", apperror.New(apperror.KindValidation, "item %d: quantity must be at most %d", i+1, maxLineQuantity)
		}
	}
	if len(strings.TrimSpace(input.CustomerName)) > maxCustomerNameLength {
		return "", apperror.New(apperror.KindValidation, "customer name must be at most %d characters", maxCustomerNameLength)
	}

	payment := model.PaymentMethod(strings.ToLower(strings.TrimSpace(input.PaymentMethod)))
	if payment == "" {
		payment = model.PaymentCash
	}
	if !payment.Valid() {
		return "", apperror.New(apperror.KindValidation, "unknown payment method %q", input.PaymentMethod)
	}
	return payment, nil
}

func (uc *orderUseCase) AdvanceStatus(ctx context.Context, input *dto.AdvanceStatusInput) (o *model.Order, err error) {
	ctx, span := uc.tracer.Start(ctx, "order.advance_status", trace.WithAttributes(
		attribute.Int64("order.id", input.OrderID),
		attribute.String("order.target_status", string(input.Target)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(apperror.KindOf(err)))
		}
		span.End()
	}()

	if err := auth.Require(input.Role, model.RoleAdmin, model.RoleCashier, model.RoleKitchen); err != nil {
		return nil, err
	}
	if !input.Target.Valid() {
		return nil, apperror.New(apperror.KindValidation, "unknown order status %q", input.Target)
	}

	var from model.OrderStatus
	err = uc.txm.WithTx(ctx, func(ctx context.Context) error {
		current, err := uc.GetOrder(ctx, input.OrderID)
		if err != nil {
			return err
		}
		from = current.Status

		if !validTransition(from, input.Target) {
			return apperror.New(apperror.KindInvalidTransition,
				"order %d cannot move from %s to %s", input.OrderID, from, input.Target)
		}
		if !roleMayAdvance(input.Role) || !roleMayTransition(input.Role, from, input.Target) {
			return apperror.New(apperror.KindForbidden,
				"role %s may not move an order from %s to %s", input.Role, from, input.Target)
		}

		ok, err := uc.repo.TransitionStatus(ctx, input.OrderID, from, input.Target, uc.now())
		if err != nil {
			return apperror.Internal(err, "update order status")
		}
		if !ok {
			return apperror.New(apperror.KindInvalidTransition,
				"order %d changed status concurrently", input.OrderID)
		}

		o, err = uc.GetOrder(ctx, input.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("order status changed",
		zap.Int64("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
		zap.String("actor", input.Actor),
	)
	uc.publish(ctx, o.ID, dto.EventOrderStatusChanged, &dto.StatusChangedPayload{
		OrderID:   o.ID,
		From:      from,
		To:        o.Status,
		Actor:     input.Actor,
		ChangedAt: uc.now(),
	})
	return o, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err, "load order")
	}
	if o == nil {
		return nil, apperror.New(apperror.KindNotFound, "order %d not found", id)
	}
	return o, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, apperror.New(apperror.KindValidation, "unknown order status %q", filters.Status)
	}
	orders, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, apperror.Internal(err, "list orders")
	}
	return orders, nil
}

func (uc *orderUseCase) publish(ctx context.Context, orderID int64, eventType string, payload interface{}) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := uc.events.Publish(ctx, strconv.FormatInt(orderID, 10), eventType, payload); err != nil {
		uc.logger.Warn("failed to publish order event",
			zap.String("event_type", eventType),
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
	}
}

func createdPayload(o *model.Order) *dto.OrderCreatedPayload {
	items := make([]dto.OrderItemPayload, 0, len(o.Items))
	for _, it := range o.Items {
		side := ""
		if it.SideOption != nil {
			side = *it.SideOption
		}
		items = append(items, dto.OrderItemPayload{MenuItemID: it.MenuItemID, Quantity: it.Quantity, SideOption: side})
	}
	return &dto.OrderCreatedPayload{
		OrderID:   o.ID,
		Total:     o.Total.String(),
		Items:     items,
		CreatedBy: o.CreatedBy,
		CreatedAt: o.CreatedAt,
	}
}
