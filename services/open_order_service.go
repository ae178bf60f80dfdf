package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/shg-marketplace-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateOpenOrderInput is a customer's requirement as submitted
type CreateOpenOrderInput struct {
	Title         string
	Description   string
	Category      string
	ExpectedPrice float64
	Quantity      string
}

// PlaceBidInput is an SHG's offer as submitted
type PlaceBidInput struct {
	Message string
	Price   float64
}

// OpenOrderService owns open order requests and the bidding on them
type OpenOrderService struct {
	db       *gorm.DB
	registry SHGRegistry
	notifier Notifier
	cache    OpenOrderCache
	logger   *zap.Logger
}

// NewOpenOrderService creates an OpenOrderService. cache may be nil.
func NewOpenOrderService(db *gorm.DB, registry SHGRegistry, notifier Notifier, cache OpenOrderCache, logger *zap.Logger) *OpenOrderService {
	if cache == nil {
		cache = noopOpenOrderCache{}
	}
	return &OpenOrderService{
		db:       db,
		registry: registry,
		notifier: notifier,
		cache:    cache,
		logger:   logger,
	}
}

// Create posts a new open request for customerID
func (s *OpenOrderService) Create(ctx context.Context, customerID uint, input CreateOpenOrderInput) (*models.OpenOrder, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	input.Quantity = strings.TrimSpace(input.Quantity)

	if input.Title == "" || input.Description == "" || input.Category == "" || input.Quantity == "" {
		return nil, validationError("All fields are required")
	}
	if !(input.ExpectedPrice > 0) {
		return nil, validationError("Expected price must be a positive number")
	}

	order := models.OpenOrder{
		CustomerID:    customerID,
		Title:         input.Title,
		Description:   input.Description,
		Category:      input.Category,
		ExpectedPrice: input.ExpectedPrice,
		Quantity:      input.Quantity,
		Status:        models.OpenOrderOpen,
		Version:       1,
	}
	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, dependency("Failed to create open order", err)
	}
	order.Bids = []models.Bid{}

	s.invalidateOpen(ctx)
	s.logger.Info("Open order created",
		zap.String("open_order_id", order.ID),
		zap.Uint("customer_id", customerID),
	)
	return &order, nil
}

// ListOpen returns every open request with its requester's name, newest first.
// Bids are not included.
func (s *OpenOrderService) ListOpen(ctx context.Context) ([]models.OpenOrder, error) {
	if cached, ok, err := s.cache.GetOpen(ctx); err != nil {
		s.logger.Warn("Open order cache read failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	// taken before the query so a write committed during it voids the fill
	generation, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.logger.Warn("Open order cache generation read failed", zap.Error(genErr))
	}

	orders := []models.OpenOrder{}
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.OpenOrderOpen).
		Preload("Customer").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, dependency("Failed to fetch open orders", err)
	}

	if genErr == nil {
		err := s.cache.SetOpen(ctx, generation, orders)
		switch {
		case errors.Is(err, ErrStaleOpenOrders):
			s.logger.Debug("Open order list changed while reading; not cached")
		case err != nil:
			s.logger.Warn("Open order cache write failed", zap.Error(err))
		}
	}
	return orders, nil
}

// ListMine returns the customer's requests, newest first, with each bid's SHG name and rating
func (s *OpenOrderService) ListMine(ctx context.Context, customerID uint) ([]models.OpenOrder, error) {
	orders := []models.OpenOrder{}
	if err := withBids(s.db.WithContext(ctx)).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, dependency("Failed to fetch your open orders", err)
	}

	for i := range orders {
		if orders[i].Bids == nil {
			orders[i].Bids = []models.Bid{}
		}
	}
	return orders, nil
}

// PlaceBid appends a pending bid from the caller's SHG to an open request.
// The status check and the insert happen in the same transaction as the
// request row lock, so a bid never lands on a request that was accepted first.
func (s *OpenOrderService) PlaceBid(ctx context.Context, orderID string, caller models.Principal, input PlaceBidInput) (*models.OpenOrder, error) {
	input.Message = strings.TrimSpace(input.Message)
	if input.Message == "" {
		return nil, validationError("Message is required")
	}
	if !(input.Price > 0) {
		return nil, validationError("Price must be a positive number")
	}

	// Resolved up front; reported only after the request checks below.
	shg, shgErr := s.registry.FindByOwner(ctx, caller.ID)
	if shgErr != nil && !errors.Is(shgErr, ErrNotFound) {
		return nil, shgErr
	}

	var order *models.OpenOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOpenOrder(tx, orderID)
		if err != nil {
			return err
		}

		if order.Status != models.OpenOrderOpen {
			return invalidState("ORDER_NOT_OPEN", "This request is no longer open for bidding")
		}
		if shgErr != nil || !shg.Approved() {
			return notFound("SHG_NOT_FOUND", "SHG profile not found")
		}

		var existing int64
		if err := tx.Model(&models.Bid{}).
			Where("open_order_id = ? AND shg_id = ?", order.ID, shg.ID).
			Count(&existing).Error; err != nil {
			return dependency("Failed to check existing bids", err)
		}
		if existing > 0 {
			return conflict("BID_EXISTS", "You have already placed a bid on this request")
		}

		bid := models.Bid{
			OpenOrderID: order.ID,
			ShgID:       shg.ID,
			Message:     input.Message,
			Price:       input.Price,
			Status:      models.BidPending,
		}
		if err := tx.Create(&bid).Error; err != nil {
			if isUniqueViolation(err) {
				return conflict("BID_EXISTS", "You have already placed a bid on this request")
			}
			return dependency("Failed to place bid", err)
		}

		return bumpVersion(tx, order, map[string]interface{}{})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bid placed",
		zap.String("open_order_id", order.ID),
		zap.Uint("shg_id", shg.ID),
		zap.Float64("price", input.Price),
	)

	notifyBestEffort(ctx, s.notifier, s.logger, &models.Notification{
		UserID:  order.CustomerID,
		Message: fmt.Sprintf("New bid received from %s for your request: %s", shg.ShgName, order.Title),
		Type:    models.NotificationInfo,
		Link:    "/open-orders",
	})

	return s.reload(ctx, order.ID)
}

// AcceptBid awards the request to one bid. The status flip, the resolution of
// every bid and the fulfillment order are committed together; the winner is
// notified only after the commit.
func (s *OpenOrderService) AcceptBid(ctx context.Context, orderID string, caller models.Principal, bidID string) (*models.OpenOrder, *models.FulfillmentOrder, error) {
	if strings.TrimSpace(bidID) == "" {
		return nil, nil, validationError("bidId is required")
	}

	var (
		order       *models.OpenOrder
		winner      models.Bid
		fulfillment models.FulfillmentOrder
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOpenOrder(tx, orderID)
		if err != nil {
			return err
		}

		if order.CustomerID != caller.ID {
			return forbidden("Only the customer who posted this request can accept bids")
		}

		if err := tx.Where("open_order_id = ?", order.ID).Order("created_at ASC").Find(&order.Bids).Error; err != nil {
			return dependency("Failed to fetch bids", err)
		}
		bid, ok := order.FindBid(bidID)
		if !ok {
			return notFound("BID_NOT_FOUND", "Bid not found")
		}

		if order.Status != models.OpenOrderOpen {
			return invalidState("ORDER_NOT_OPEN", "This request is no longer open")
		}

		if err := bumpVersion(tx, order, map[string]interface{}{"status": models.OpenOrderAssigned}); err != nil {
			return err
		}

		if err := tx.Model(&models.Bid{}).
			Where("id = ?", bid.ID).
			Update("status", models.BidAccepted).Error; err != nil {
			return dependency("Failed to accept bid", err)
		}
		if err := tx.Model(&models.Bid{}).
			Where("open_order_id = ? AND id <> ? AND status = ?", order.ID, bid.ID, models.BidPending).
			Update("status", models.BidRejected).Error; err != nil {
			return dependency("Failed to reject other bids", err)
		}

		for i := range order.Bids {
			switch {
			case order.Bids[i].ID == bid.ID:
				order.Bids[i].Status = models.BidAccepted
			case order.Bids[i].Status == models.BidPending:
				order.Bids[i].Status = models.BidRejected
			}
		}

		winner = *bid
		fulfillment = Materialize(order, winner, CustomerContact{Name: caller.Name, Phone: caller.Phone})
		if err := tx.Create(&fulfillment).Error; err != nil {
			if isUniqueViolation(err) {
				return invalidState("ORDER_NOT_OPEN", "This request has already been assigned")
			}
			return dependency("Failed to create order", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.invalidateOpen(ctx)
	s.logger.Info("Bid accepted",
		zap.String("open_order_id", order.ID),
		zap.String("bid_id", winner.ID),
		zap.String("order_code", fulfillment.OrderCode),
	)

	if shg, err := s.registry.FindByID(ctx, winner.ShgID); err != nil {
		s.logger.Warn("Could not resolve winning SHG for notification",
			zap.Uint("shg_id", winner.ShgID),
			zap.Error(err),
		)
	} else {
		notifyBestEffort(ctx, s.notifier, s.logger, &models.Notification{
			UserID:  shg.OwnerUserID,
			Message: fmt.Sprintf("Congratulations! Your bid for \"%s\" has been accepted! You can now see it in your Orders Dashboard.", order.Title),
			Type:    models.NotificationSuccess,
			Link:    "/shg/orders",
		})
	}

	// the acceptance is committed; a failed re-read must not report it as failed
	updated, err := s.reload(ctx, order.ID)
	if err != nil {
		s.logger.Error("Failed to reload accepted open order",
			zap.String("open_order_id", order.ID),
			zap.Error(err),
		)
		return order, &fulfillment, nil
	}
	return updated, &fulfillment, nil
}

// Cancel withdraws an open request; its pending bids are rejected with it
func (s *OpenOrderService) Cancel(ctx context.Context, orderID string, caller models.Principal) (*models.OpenOrder, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOpenOrder(tx, orderID)
		if err != nil {
			return err
		}

		if order.CustomerID != caller.ID {
			return forbidden("Only the customer who posted this request can cancel it")
		}
		if !order.Status.CanTransition(models.OpenOrderCancelled) {
			return invalidState("INVALID_STATUS_TRANSITION",
				fmt.Sprintf("A %s request cannot be cancelled", order.Status))
		}

		if err := bumpVersion(tx, order, map[string]interface{}{"status": models.OpenOrderCancelled}); err != nil {
			return err
		}
		if err := tx.Model(&models.Bid{}).
			Where("open_order_id = ? AND status = ?", order.ID, models.BidPending).
			Update("status", models.BidRejected).Error; err != nil {
			return dependency("Failed to reject pending bids", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOpen(ctx)
	s.logger.Info("Open order cancelled", zap.String("open_order_id", orderID))
	return s.reload(ctx, orderID)
}

// Get returns one request with its bids
func (s *OpenOrderService) Get(ctx context.Context, orderID string) (*models.OpenOrder, error) {
	return s.reload(ctx, orderID)
}

func (s *OpenOrderService) reload(ctx context.Context, orderID string) (*models.OpenOrder, error) {
	var order models.OpenOrder
	err := withBids(s.db.WithContext(ctx)).First(&order, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("ORDER_NOT_FOUND", "Open order not found")
	}
	if err != nil {
		return nil, dependency("Failed to fetch open order", err)
	}
	if order.Bids == nil {
		order.Bids = []models.Bid{}
	}
	return &order, nil
}

func (s *OpenOrderService) invalidateOpen(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Open order cache invalidation failed", zap.Error(err))
	}
}

// withBids preloads bids in submission order, each with its SHG's public summary
func withBids(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Bids", func(db *gorm.DB) *gorm.DB {
			return db.Order("bids.created_at ASC")
		}).
		Preload("Bids.SHG")
}

// lockOpenOrder reads the request row with FOR UPDATE inside tx
func lockOpenOrder(tx *gorm.DB, orderID string) (*models.OpenOrder, error) {
	var order models.OpenOrder
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("ORDER_NOT_FOUND", "Open order not found")
	}
	if err != nil {
		return nil, dependency("Failed to fetch open order", err)
	}
	return &order, nil
}

// bumpVersion applies updates only if nobody changed the request since it was
// read open, and fails with InvalidState when somebody did.
func bumpVersion(tx *gorm.DB, order *models.OpenOrder, updates map[string]interface{}) error {
	updates["version"] = gorm.Expr("version + 1")

	res := tx.Model(&models.OpenOrder{}).
		Where("id = ? AND version = ? AND status = ?", order.ID, order.Version, order.Status).
		Updates(updates)
	if res.Error != nil {
		return dependency("Failed to update open order", res.Error)
	}
	if res.RowsAffected == 0 {
		return invalidState("ORDER_NOT_OPEN", "This request was modified concurrently")
	}

	order.Version++
	if status, ok := updates["status"].(models.OpenOrderStatus); ok {
		order.Status = status
	}
	return nil
}

// isUniqueViolation reports whether err is a unique constraint failure from any supported driver
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
