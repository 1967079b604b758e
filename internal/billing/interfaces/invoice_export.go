package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"printfleet-cloud/internal/billing/application"
)

// BuildInvoicePDF renders a minimal PDF invoice for one device period.
func BuildInvoicePDF(report application.DebtReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Copy Service Invoice")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Device: %s", report.DeviceKey))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s - %s", report.Period.Start.Format("2006-01-02"), report.Period.End.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	if !report.Consumption.Determined() {
		pdf.Cell(0, 6, "Consumption could not be determined for this period.")
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Channel", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Pages", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Unit price", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)

	pdf.CellFormat(50, 6, "Black/white", "1", 0, "L", false, 0, "")
	pdf.CellFormat(35, 6, fmt.Sprintf("%d", report.Consumption.BlackWhiteDelta), "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, report.Debt.Pricing.BlackWhitePrice.String(), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, report.Debt.BlackWhiteAmount.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	pdf.CellFormat(50, 6, "Color", "1", 0, "L", false, 0, "")
	pdf.CellFormat(35, 6, fmt.Sprintf("%d", report.Consumption.ColorDelta), "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, report.Debt.Pricing.ColorPrice.String(), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, report.Debt.ColorAmount.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total (%s): %s", report.Debt.Pricing.Currency, report.Debt.TotalDebt.StringFixed(2)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildInvoiceXLSX renders a minimal XLSX invoice for one device period.
func BuildInvoiceXLSX(report application.DebtReport) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "invoice"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Copy Service Invoice")
	_ = f.SetCellValue(sheet, "A3", "Device")
	_ = f.SetCellValue(sheet, "B3", report.DeviceKey)
	_ = f.SetCellValue(sheet, "A4", "Period start")
	_ = f.SetCellValue(sheet, "B4", report.Period.Start.Format("2006-01-02"))
	_ = f.SetCellValue(sheet, "A5", "Period end")
	_ = f.SetCellValue(sheet, "B5", report.Period.End.Format("2006-01-02"))
	_ = f.SetCellValue(sheet, "A6", "Determined")
	_ = f.SetCellValue(sheet, "B6", report.Consumption.Determined())

	_ = f.SetCellValue(sheet, "A8", "Channel")
	_ = f.SetCellValue(sheet, "B8", "Pages")
	_ = f.SetCellValue(sheet, "C8", "Unit price")
	_ = f.SetCellValue(sheet, "D8", "Amount")

	_ = f.SetCellValue(sheet, "A9", "Black/white")
	_ = f.SetCellValue(sheet, "B9", report.Consumption.BlackWhiteDelta)
	_ = f.SetCellValue(sheet, "C9", report.Debt.Pricing.BlackWhitePrice.String())
	_ = f.SetCellValue(sheet, "D9", report.Debt.BlackWhiteAmount.StringFixed(2))

	_ = f.SetCellValue(sheet, "A10", "Color")
	_ = f.SetCellValue(sheet, "B10", report.Consumption.ColorDelta)
	_ = f.SetCellValue(sheet, "C10", report.Debt.Pricing.ColorPrice.String())
	_ = f.SetCellValue(sheet, "D10", report.Debt.ColorAmount.StringFixed(2))

	_ = f.SetCellValue(sheet, "A12", "Total")
	_ = f.SetCellValue(sheet, "B12", report.Debt.TotalDebt.StringFixed(2))
	_ = f.SetCellValue(sheet, "C12", report.Debt.Pricing.Currency)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
