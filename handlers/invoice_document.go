package handlers

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"p9e.in/siteops/models"
)

// RenderInvoiceDocument produces the billing workbook for an invoice. Pure
// function of the invoice's fields; no side effects.
func RenderInvoiceDocument(invoice *models.ContractorInvoice) ([]byte, error) {
	f := excelize.NewFile()
	sheetName := "Invoice"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 16,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "center",
		},
	})
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Labour Invoice %s", invoice.InvoiceNumber))
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.SetRowHeight(sheetName, 1, 30)

	f.SetCellValue(sheetName, "A2", fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05")))

	labelStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})

	contractorName := invoice.ContractorID.String()
	if invoice.Contractor != nil {
		contractorName = fmt.Sprintf("%s (%s)", invoice.Contractor.Name, invoice.Contractor.EmployeeID)
	}

	rows := []struct {
		label string
		value interface{}
	}{
		{"Contractor", contractorName},
		{"Billing week", fmt.Sprintf("%s to %s",
			invoice.WeekStart.Format("2006-01-02"), invoice.WeekEnd.Format("2006-01-02"))},
		{"Labour-days", invoice.LabourDayCount},
		{"Blended daily rate", invoice.BlendedRate},
		{"Taxable amount", invoice.TaxableAmount},
		{fmt.Sprintf("GST (%.0f%%)", invoice.GSTRate), invoice.GSTAmount},
		{"Total amount", invoice.TotalAmount},
	}
	for i, row := range rows {
		labelCell := fmt.Sprintf("A%d", i+4)
		valueCell := fmt.Sprintf("B%d", i+4)
		f.SetCellValue(sheetName, labelCell, row.label)
		f.SetCellStyle(sheetName, labelCell, labelCell, labelStyle)
		f.SetCellValue(sheetName, valueCell, row.value)
	}

	f.SetColWidth(sheetName, "A", "A", 24)
	f.SetColWidth(sheetName, "B", "B", 32)

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
