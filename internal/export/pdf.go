package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

const maxPDFRows = 500

// WritePDF renders the statement as an A4 PDF.
func WritePDF(w io.Writer, st *Statement) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(false, 14)
	pdf.AddPage()

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BharatLedger Statement")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", st.From.Format("2006-01-02"), st.To.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, "Account holder: "+ascii(st.OwnerName)+" <"+ascii(st.OwnerEmail)+">")
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 11)

	sumW := []float64{60, 60, 62}
	pdf.CellFormat(sumW[0], 10, "Income (INR)", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[1], 10, "Expenses (INR)", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[2], 10, "Net (INR)", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(sumW[0], 10, FormatINR(st.TotalIncome), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[1], 10, FormatINR(st.TotalExpense), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[2], 10, FormatINR(st.Net()), "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	colW := []float64{24, 80, 38, 40}
	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(245, 245, 245)
		pdf.CellFormat(colW[0], 8, "DATE", "1", 0, "C", true, 0, "")
		pdf.CellFormat(colW[1], 8, "DESCRIPTION", "1", 0, "L", true, 0, "")
		pdf.CellFormat(colW[2], 8, "CATEGORY", "1", 0, "L", true, 0, "")
		pdf.CellFormat(colW[3], 8, "AMOUNT", "1", 1, "R", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	for i, t := range st.Transactions {
		if i >= maxPDFRows {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 8, fmt.Sprintf("%d more transactions not shown", len(st.Transactions)-maxPDFRows), "1", 1, "C", false, 0, "")
			break
		}
		if pdf.GetY() > 270 {
			pdf.AddPage()
			header()
		}

		amount := FormatINR(t.Amount)
		if t.Type == model.TransactionTypeExpense {
			amount = "-" + amount
		}
		pdf.CellFormat(colW[0], 7, t.Date.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[1], 7, trimTo(ascii(t.Description), 48), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[2], 7, trimTo(ascii(t.Category), 22), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[3], 7, amount, "1", 1, "R", false, 0, "")
	}

	pdf.SetY(-18)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 10, "Generated by BharatLedger "+st.GeneratedAt.Format(time.RFC3339), "", 0, "C", false, 0, "")

	return pdf.Output(w)
}

// ascii drops characters the core PDF fonts cannot draw.
func ascii(s string) string {
	s = strings.ReplaceAll(s, "₹", "Rs.")
	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}

func trimTo(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
