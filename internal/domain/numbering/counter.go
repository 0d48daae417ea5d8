// Package numbering defines the per-tenant document number sequences.
package numbering

import (
	"context"

	"github.com/google/uuid"
)

// DocumentKind selects one of the independent per-tenant sequences
type DocumentKind string

const (
	KindOrder   DocumentKind = "ORDER"
	KindInvoice DocumentKind = "INVOICE"
)

// IsValid reports whether the kind names a known sequence
func (k DocumentKind) IsValid() bool {
	return k == KindOrder || k == KindInvoice
}

func (k DocumentKind) String() string {
	return string(k)
}

// FirstNumber is the number issued by a fresh sequence
const FirstNumber int64 = 1

// CounterRepository issues document numbers. NextNumber must be a single
// atomic read-and-increment inside the caller's transaction, creating the
// tenant's counter row on first use.
type CounterRepository interface {
	NextNumber(ctx context.Context, tenantID uuid.UUID, kind DocumentKind) (int64, error)
	// AdvancePast moves the sequence beyond a number the caller chose
	// itself, so NextNumber never issues it again. It never moves the
	// sequence backwards.
	AdvancePast(ctx context.Context, tenantID uuid.UUID, kind DocumentKind, number int64) error
}
