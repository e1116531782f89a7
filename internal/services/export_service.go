package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/siampay/installment-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

type ExportService struct {
	repos *repository.Repositories
}

func NewExportService(repos *repository.Repositories) *ExportService {
	return &ExportService{repos: repos}
}

// ExportContractsXLSX writes the contract listing to a spreadsheet
func (s *ExportService) ExportContractsXLSX(ctx context.Context, query *repository.ContractQuery) ([]byte, string, error) {
	contracts, _, err := s.repos.Contract.List(ctx, query)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Contracts"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	headers := []string{"Contract", "Customer", "Phone", "Plan", "Status", "Total", "Paid", "Remaining", "Monthly", "Months", "Paid Months", "Due Date", "Created"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	now := time.Now()
	for i := range contracts {
		row := contracts[i].ToListRow(now)
		values := []interface{}{
			row.ContractNumber,
			row.CustomerName,
			row.CustomerPhone,
			row.Type,
			row.Status,
			row.TotalAmount,
			row.PaidAmount,
			row.RemainingAmount,
			row.MonthlyAmount,
			row.TotalInstallments,
			row.PaidInstallments,
			formatDate(row.DueDate),
			row.CreatedAt.Format("2006-01-02"),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("contracts_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportPaymentsXLSX writes settled payments in [start, end) to a
// spreadsheet, optionally restricted to one branch
func (s *ExportService) ExportPaymentsXLSX(ctx context.Context, start, end time.Time, branchCode string) ([]byte, string, error) {
	entries, err := s.repos.Ledger.FindPaidInRange(ctx, start, end, branchCode)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Payments"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	headers := []string{"Payment ID", "Contract", "Installment", "Amount", "Method", "Paid At", "Due Date", "Receipt", "Branch", "Recorded By"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	total := 0.0
	for i := range entries {
		e := &entries[i]
		recordedBy := ""
		if e.RecordedBy != nil {
			recordedBy = e.RecordedBy.FullName
		}
		values := []interface{}{
			e.PaymentID,
			e.Contract.DisplayNumber(),
			e.InstallmentNumber,
			e.AmountPaid,
			e.PaymentMethod,
			formatDate(e.PaymentDate),
			e.DueDate.Format("2006-01-02"),
			e.ReceiptNumber,
			e.BranchCode,
			recordedBy,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
		total += e.AmountPaid
	}

	totalRow := len(entries) + 2
	cell, _ := excelize.CoordinatesToCellName(3, totalRow)
	_ = f.SetCellValue(sheet, cell, "Total")
	cell, _ = excelize.CoordinatesToCellName(4, totalRow)
	_ = f.SetCellValue(sheet, cell, total)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("payments_%s_%s.xlsx", start.Format("2006-01-02"), end.Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportPaymentsCSV writes settled payments in [start, end) as CSV
func (s *ExportService) ExportPaymentsCSV(ctx context.Context, start, end time.Time, branchCode string) ([]byte, string, error) {
	entries, err := s.repos.Ledger.FindPaidInRange(ctx, start, end, branchCode)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"payment_id", "contract", "installment", "amount", "method", "paid_at", "due_date", "receipt", "branch"})
	for i := range entries {
		e := &entries[i]
		_ = writer.Write([]string{
			e.PaymentID,
			e.Contract.DisplayNumber(),
			fmt.Sprintf("%d", e.InstallmentNumber),
			fmt.Sprintf("%.2f", e.AmountPaid),
			e.PaymentMethod,
			formatDate(e.PaymentDate),
			e.DueDate.Format("2006-01-02"),
			e.ReceiptNumber,
			e.BranchCode,
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("payments_%s_%s.csv", start.Format("2006-01-02"), end.Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
