package po

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/opex-suite/opex-suite/internal/budget"
	"github.com/opex-suite/opex-suite/internal/fx"
	"github.com/opex-suite/opex-suite/internal/importer"
	"github.com/opex-suite/opex-suite/internal/masterdata"
	"github.com/opex-suite/opex-suite/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPO(ctx context.Context, id int64) (PurchaseOrder, error)
	ListPOs(ctx context.Context, limit, offset int) ([]PurchaseOrder, int, error)
	LineItemTotals(ctx context.Context, uid string) (budgetTotal, actualTotal float64, err error)
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreatePO(ctx context.Context, po PurchaseOrder) (int64, error)
	UpdatePO(ctx context.Context, po PurchaseOrder) error
	UpdatePOStatus(ctx context.Context, id int64, status Status) error
	GetBucketForUpdate(ctx context.Context, key BucketKey) (*ActualsBucket, error)
	CreateBucket(ctx context.Context, bucket ActualsBucket) (int64, error)
	AddToBucket(ctx context.Context, id int64, delta float64, remark string) error
}

// ConverterPort converts amounts into the base currency.
type ConverterPort interface {
	Convert(ctx context.Context, from, to string, amount float64) (float64, error)
}

// MasterdataPort resolves the cost centre buckets post against.
type MasterdataPort interface {
	FirstCostCentre(ctx context.Context) (*masterdata.CostCentre, error)
}

// NotifierPort delivers best-effort notifications. Failures are logged
// by the service and never propagated.
type NotifierPort interface {
	BudgetExceeded(ctx context.Context, uid string, budgetTotal, actualTotal float64) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages purchase orders and the derived actuals posting.
type Service struct {
	repo       RepositoryPort
	converter  ConverterPort
	masterdata MasterdataPort
	notifier   NotifierPort
	audit      AuditPort
	logger     *slog.Logger
	validate   *validator.Validate
}

// NewService constructs the PO service.
func NewService(repo RepositoryPort, converter ConverterPort, md MasterdataPort, notifier NotifierPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		converter:  converter,
		masterdata: md,
		notifier:   notifier,
		audit:      audit,
		logger:     logger,
		validate:   validator.New(),
	}
}

// CreatePOInput describes creation payload.
type CreatePOInput struct {
	Number       string    `json:"number" validate:"required"`
	VendorID     int64     `json:"vendorId"`
	Date         time.Time `json:"date" validate:"required"`
	Value        float64   `json:"value" validate:"gt=0"`
	Currency     string    `json:"currency" validate:"omitempty,len=3"`
	PRNumber     string    `json:"prNumber"`
	TowerID      int64     `json:"towerId"`
	BudgetHeadID int64     `json:"budgetHeadId"`
	LineItemUID  string    `json:"lineItemUid"`
	FiscalYear   int       `json:"fiscalYear"`
}

// UpdatePOInput describes value/date edits to an existing PO.
type UpdatePOInput struct {
	Value    float64   `json:"value" validate:"gt=0"`
	Currency string    `json:"currency" validate:"omitempty,len=3"`
	Date     time.Time `json:"date"`
}

// CreatePO persists the PO and synchronously posts its converted value
// into the matching actuals bucket.
func (s *Service) CreatePO(ctx context.Context, input CreatePOInput, actorID int64) (PurchaseOrder, error) {
	if err := s.validate.Struct(input); err != nil {
		return PurchaseOrder{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if input.Currency == "" {
		input.Currency = importer.BaseCurrency
	}

	// Fiscal year falls back to the PO date's calendar year, not the
	// April-start fiscal year used by budget allocations. POs dated
	// January-March may therefore land differently than the tracker
	// expects; kept pending product clarification.
	fiscalYear := input.FiscalYear
	if fiscalYear == 0 {
		fiscalYear = shared.CalendarYear(input.Date)
	}

	order := PurchaseOrder{
		Number:       input.Number,
		VendorID:     input.VendorID,
		Date:         input.Date,
		Value:        input.Value,
		Currency:     input.Currency,
		Status:       StatusDraft,
		PRNumber:     input.PRNumber,
		TowerID:      input.TowerID,
		BudgetHeadID: input.BudgetHeadID,
		LineItemUID:  input.LineItemUID,
		FiscalYear:   fiscalYear,
		Month:        budget.MonthOf(input.Date),
	}
	order.ConvertedValue = s.convertToBase(ctx, order.Currency, order.Value)

	key, ok := s.bucketKey(ctx, order)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreatePO(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id
		if !ok {
			return nil
		}
		return s.postToBucket(ctx, tx, key, order.ConvertedValue, fmt.Sprintf("PO %s", order.Number))
	})
	if err != nil {
		return PurchaseOrder{}, err
	}

	s.recordAudit(ctx, actorID, "PO_CREATE", order.ID, map[string]any{"number": order.Number, "value": order.Value, "converted": order.ConvertedValue})
	s.checkBudgetExceeded(ctx, order.LineItemUID)
	return order, nil
}

// UpdatePO applies value edits and adjusts the actuals bucket by the
// delta of the converted value. The adjustment is always incremental.
func (s *Service) UpdatePO(ctx context.Context, id int64, input UpdatePOInput, actorID int64) (PurchaseOrder, error) {
	if err := s.validate.Struct(input); err != nil {
		return PurchaseOrder{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	order, err := s.repo.GetPO(ctx, id)
	if err != nil {
		return PurchaseOrder{}, err
	}

	previousConverted := order.ConvertedValue
	order.Value = input.Value
	if input.Currency != "" {
		order.Currency = input.Currency
	}
	if !input.Date.IsZero() {
		order.Date = input.Date
		order.Month = budget.MonthOf(input.Date)
	}
	order.ConvertedValue = s.convertToBase(ctx, order.Currency, order.Value)
	delta := order.ConvertedValue - previousConverted

	key, ok := s.bucketKey(ctx, order)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdatePO(ctx, order); err != nil {
			return err
		}
		if !ok || delta == 0 {
			return nil
		}
		bucket, err := tx.GetBucketForUpdate(ctx, key)
		if err != nil {
			return err
		}
		if bucket == nil {
			// No bucket was ever created for this PO; the delta is
			// dropped rather than fabricating one. Known gap.
			s.logger.Warn("actuals bucket missing on PO update, delta dropped",
				slog.String("number", order.Number), slog.Float64("delta", delta))
			return nil
		}
		return tx.AddToBucket(ctx, bucket.ID, delta, fmt.Sprintf("PO %s adjusted", order.Number))
	})
	if err != nil {
		return PurchaseOrder{}, err
	}

	s.recordAudit(ctx, actorID, "PO_UPDATE", order.ID, map[string]any{"number": order.Number, "delta": delta})
	s.checkBudgetExceeded(ctx, order.LineItemUID)
	return order, nil
}

// Transition moves a PO through its status workflow.
func (s *Service) Transition(ctx context.Context, id int64, target Status, actorID int64) error {
	order, err := s.repo.GetPO(ctx, id)
	if err != nil {
		return err
	}
	if !validTransition(order.Status, target) {
		return ErrInvalidState
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdatePOStatus(ctx, id, target)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "PO_STATUS", id, map[string]any{"number": order.Number, "from": order.Status, "to": target})
	return nil
}

// GetPO fetches one purchase order.
func (s *Service) GetPO(ctx context.Context, id int64) (PurchaseOrder, error) {
	return s.repo.GetPO(ctx, id)
}

// ListPOs returns a page of purchase orders.
func (s *Service) ListPOs(ctx context.Context, limit, offset int) ([]PurchaseOrder, int, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListPOs(ctx, limit, offset)
}

func validTransition(current, target Status) bool {
	switch current {
	case StatusDraft:
		return target == StatusSubmitted
	case StatusSubmitted:
		return target == StatusApproved || target == StatusRejected
	case StatusApproved:
		return target == StatusClosed
	}
	return false
}

// convertToBase converts into the base currency; a missing rate is
// non-fatal and the raw value is treated as already converted.
func (s *Service) convertToBase(ctx context.Context, currency string, value float64) float64 {
	converted, err := s.converter.Convert(ctx, currency, importer.BaseCurrency, value)
	if err != nil {
		if errors.Is(err, fx.ErrNoRate) {
			s.logger.Warn("no conversion rate, using raw value",
				slog.String("currency", currency), slog.Float64("value", value))
		} else {
			s.logger.Warn("currency conversion failed, using raw value",
				slog.String("currency", currency), slog.Any("error", err))
		}
		return value
	}
	return converted
}

// bucketKey resolves the posting bucket. The cost centre is whatever
// comes first in the system, not one tied to the PO or line item;
// flagged as a likely latent bug, preserved until product decides.
func (s *Service) bucketKey(ctx context.Context, order PurchaseOrder) (BucketKey, bool) {
	cc, err := s.masterdata.FirstCostCentre(ctx)
	if err != nil {
		s.logger.Warn("resolve cost centre", slog.Any("error", err))
		return BucketKey{}, false
	}
	if cc == nil {
		s.logger.Warn("no cost centre configured, skipping actuals posting", slog.String("number", order.Number))
		return BucketKey{}, false
	}
	return BucketKey{
		FiscalYear:   order.FiscalYear,
		Month:        order.Month,
		TowerID:      order.TowerID,
		BudgetHeadID: order.BudgetHeadID,
		CostCentreID: cc.ID,
	}, true
}

func (s *Service) postToBucket(ctx context.Context, tx TxRepository, key BucketKey, amount float64, remark string) error {
	bucket, err := tx.GetBucketForUpdate(ctx, key)
	if err != nil {
		return err
	}
	if bucket == nil {
		_, err := tx.CreateBucket(ctx, ActualsBucket{
			FiscalYear:   key.FiscalYear,
			Month:        key.Month,
			TowerID:      key.TowerID,
			BudgetHeadID: key.BudgetHeadID,
			CostCentreID: key.CostCentreID,
			Amount:       amount,
			Remarks:      remark,
		})
		return err
	}
	return tx.AddToBucket(ctx, bucket.ID, amount, remark)
}

// checkBudgetExceeded fires a best-effort notification when the linked
// line item's actuals exceed its budget. Never fails the request.
func (s *Service) checkBudgetExceeded(ctx context.Context, uid string) {
	if uid == "" || s.notifier == nil {
		return
	}
	budgetTotal, actualTotal, err := s.repo.LineItemTotals(ctx, uid)
	if err != nil {
		s.logger.Warn("budget exceeded check", slog.String("uid", uid), slog.Any("error", err))
		return
	}
	if actualTotal <= budgetTotal {
		return
	}
	if err := s.notifier.BudgetExceeded(ctx, uid, budgetTotal, actualTotal); err != nil {
		s.logger.Warn("budget exceeded notification failed", slog.String("uid", uid), slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "purchase_order", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
