package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/numbering"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCounterRepository issues document numbers from the tenant_counters row
// of each tenant.
type GormCounterRepository struct {
	db *gorm.DB
}

// NewGormCounterRepository creates a new GormCounterRepository
func NewGormCounterRepository(db *gorm.DB) *GormCounterRepository {
	return &GormCounterRepository{db: db}
}

// counterColumn maps a document kind to the column holding its next number.
// The column names come from this fixed set only.
func counterColumn(kind numbering.DocumentKind) (string, error) {
	switch kind {
	case numbering.KindOrder:
		return "next_order_number", nil
	case numbering.KindInvoice:
		return "next_invoice_number", nil
	}
	return "", shared.NewValidationError("Unknown document kind",
		shared.ErrorDetail{Field: "kind", Message: "must be ORDER or INVOICE", Value: string(kind)})
}

// NextNumber increments the tenant's counter for kind in one statement and
// returns the number issued. A missing row is created with the requested
// counter already advanced past the first number. The row stays locked until
// the enclosing transaction ends, so a rollback also returns the number.
func (r *GormCounterRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind) (int64, error) {
	if tenantID == uuid.Nil {
		return 0, shared.NewValidationError("Tenant ID is required")
	}
	col, err := counterColumn(kind)
	if err != nil {
		return 0, err
	}

	nextOrder, nextInvoice := numbering.FirstNumber, numbering.FirstNumber
	if kind == numbering.KindOrder {
		nextOrder++
	} else {
		nextInvoice++
	}

	stmt := fmt.Sprintf(`INSERT INTO tenant_counters (tenant_id, next_order_number, next_invoice_number, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (tenant_id) DO UPDATE SET %[1]s = tenant_counters.%[1]s + 1, updated_at = excluded.updated_at
RETURNING %[1]s`, col)

	var next int64
	if err := r.db.WithContext(ctx).
		Raw(stmt, tenantID, nextOrder, nextInvoice, time.Now()).
		Scan(&next).Error; err != nil {
		return 0, translate(err, "Tenant counter", tenantID)
	}
	if next <= numbering.FirstNumber {
		return 0, shared.NewInternalError("tenant counter returned no number", nil)
	}
	return next - 1, nil
}

// AdvancePast raises the tenant's counter for kind to number+1 when it is
// lower. The upsert runs in the caller's transaction, so a rolled back
// document leaves the counter where it was.
func (r *GormCounterRepository) AdvancePast(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind, number int64) error {
	if tenantID == uuid.Nil {
		return shared.NewValidationError("Tenant ID is required")
	}
	col, err := counterColumn(kind)
	if err != nil {
		return err
	}
	if number < numbering.FirstNumber {
		return shared.NewValidationError("Document number must be positive",
			shared.ErrorDetail{Field: "number", Message: "must be at least 1", Value: number})
	}

	nextOrder, nextInvoice := numbering.FirstNumber, numbering.FirstNumber
	if kind == numbering.KindOrder {
		nextOrder = number + 1
	} else {
		nextInvoice = number + 1
	}

	stmt := fmt.Sprintf(`INSERT INTO tenant_counters (tenant_id, next_order_number, next_invoice_number, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (tenant_id) DO UPDATE SET %[1]s = %[2]s(tenant_counters.%[1]s, excluded.%[1]s), updated_at = excluded.updated_at`,
		col, r.greatest())

	if err := r.db.WithContext(ctx).
		Exec(stmt, tenantID, nextOrder, nextInvoice, time.Now()).Error; err != nil {
		return translate(err, "Tenant counter", tenantID)
	}
	return nil
}

// greatest names the two-argument maximum of the connected dialect
func (r *GormCounterRepository) greatest() string {
	if r.db.Dialector.Name() == "sqlite" {
		return "MAX"
	}
	return "GREATEST"
}

var _ numbering.CounterRepository = (*GormCounterRepository)(nil)
