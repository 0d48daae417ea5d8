// Package export writes invoice lists as XLSX workbooks.
package export

import (
	"context"
	"fmt"
	"io"

	appinvoicing "github.com/rsjrcat/invoice-server-main-hd/internal/application/invoicing"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/invoicing"
	"github.com/xuri/excelize/v2"
)

const (
	InvoiceSheet = "Invoices"
	ItemSheet    = "Items"
)

// InvoiceHeader is the header row of the invoice sheet
var InvoiceHeader = []string{
	"Invoice Number",
	"Issue Date",
	"Due Date",
	"Status",
	"Customer ID",
	"Sales Order ID",
	"Sub Total",
	"Tax",
	"Total",
	"Notes",
}

// ItemHeader is the header row of the item sheet
var ItemHeader = []string{
	"Invoice Number",
	"Line",
	"Inventory Item ID",
	"Quantity",
	"Unit Price",
	"Tax Rate %",
	"Amount",
	"Tax",
}

var _ appinvoicing.WorkbookWriter = (*InvoiceWorkbook)(nil)

// InvoiceWorkbook streams invoices into a two sheet workbook. Amounts are
// written as currency values, not minor units.
type InvoiceWorkbook struct{}

// NewInvoiceWorkbook creates an InvoiceWorkbook
func NewInvoiceWorkbook() *InvoiceWorkbook {
	return &InvoiceWorkbook{}
}

type styles struct {
	header int
	date   int
	money  int
}

// WriteInvoices writes the workbook to w
func (b *InvoiceWorkbook) WriteInvoices(ctx context.Context, w io.Writer, invoices []invoicing.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := f.SetSheetName("Sheet1", InvoiceSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(ItemSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := writeInvoiceSheet(ctx, f, st, invoices); err != nil {
		return err
	}
	if err := writeItemSheet(ctx, f, st, invoices); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error

	st.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return st, fmt.Errorf("failed to create header style: %w", err)
	}

	dateFmt := "yyyy-mm-dd"
	st.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return st, fmt.Errorf("failed to create date style: %w", err)
	}

	// #,##0.00
	st.money, err = f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return st, fmt.Errorf("failed to create money style: %w", err)
	}
	return st, nil
}

func headerRow(header []string, style int) []any {
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = excelize.Cell{StyleID: style, Value: h}
	}
	return row
}

func writeInvoiceSheet(ctx context.Context, f *excelize.File, st styles, invoices []invoicing.Invoice) error {
	sw, err := f.NewStreamWriter(InvoiceSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}
	for col, width := range []float64{16, 12, 12, 12, 38, 38, 14, 14, 14, 40} {
		if err := sw.SetColWidth(col+1, col+1, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	if err := sw.SetRow("A1", headerRow(InvoiceHeader, st.header)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, inv := range invoices {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		salesOrder := ""
		if inv.SalesOrderID != nil {
			salesOrder = inv.SalesOrderID.String()
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			inv.InvoiceNumber,
			excelize.Cell{StyleID: st.date, Value: inv.IssueDate},
			excelize.Cell{StyleID: st.date, Value: inv.DueDate},
			inv.Status.String(),
			inv.CustomerID.String(),
			salesOrder,
			excelize.Cell{StyleID: st.money, Value: toCurrency(inv.SubTotal)},
			excelize.Cell{StyleID: st.money, Value: toCurrency(inv.TaxAmount)},
			excelize.Cell{StyleID: st.money, Value: toCurrency(inv.Total)},
			inv.Notes,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write invoice %d: %w", inv.InvoiceNumber, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	return nil
}

func writeItemSheet(ctx context.Context, f *excelize.File, st styles, invoices []invoicing.Invoice) error {
	sw, err := f.NewStreamWriter(ItemSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}
	if err := sw.SetRow("A1", headerRow(ItemHeader, st.header)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	rowNum := 2
	for i, inv := range invoices {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for line, item := range inv.Items {
			cell, _ := excelize.CoordinatesToCellName(1, rowNum)
			rate, _ := item.TaxRate.Float64()
			row := []any{
				inv.InvoiceNumber,
				line + 1,
				item.InventoryItemID.String(),
				item.Quantity,
				excelize.Cell{StyleID: st.money, Value: toCurrency(item.UnitPrice)},
				rate,
				excelize.Cell{StyleID: st.money, Value: toCurrency(item.Amount)},
				excelize.Cell{StyleID: st.money, Value: toCurrency(item.TaxAmount)},
			}
			if err := sw.SetRow(cell, row); err != nil {
				return fmt.Errorf("failed to write invoice %d line %d: %w", inv.InvoiceNumber, line+1, err)
			}
			rowNum++
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	return nil
}

// toCurrency converts minor units to a currency value
func toCurrency(minor int64) float64 {
	return float64(minor) / 100
}
