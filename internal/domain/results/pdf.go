package results

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ReportPDF renders a user's weighted results as an A4 PDF.
func (s *Service) ReportPDF(ctx context.Context, userID, periodID string) ([]byte, error) {
	res, err := s.UserResults(ctx, userID, periodID)
	if err != nil {
		return nil, err
	}
	periodLabel := "Semua periode"
	if periodID != "" {
		period, err := s.store.Period(ctx, periodID)
		if err != nil {
			return nil, err
		}
		periodLabel = fmt.Sprintf("%02d/%d", period.Month, period.Year)
	}
	return renderReport(res, periodLabel, time.Now())
}

func renderReport(res UserResult, periodLabel string, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Hasil Penilaian 360")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Nama: %s", res.FullName))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Jabatan: %s", res.Position))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Unit: %s", res.Department))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Periode: %s", periodLabel))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	headers := []string{"Aspek", "Atasan", "Rekan", "Nilai Akhir", "Penilai"}
	widths := []float64{60, 28, 28, 34, 24}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, a := range res.Result.Aspects {
		cells := []string{
			a.Aspect,
			scoreCell(a.SupervisorAverage),
			scoreCell(a.PeerAverage),
			scoreCell(a.FinalScore),
			fmt.Sprintf("%d", a.TotalFeedback),
		}
		for i, c := range cells {
			align := "C"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 8, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Nilai keseluruhan: %s", res.Label))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 7, fmt.Sprintf("Jumlah penilai: %d", res.Result.TotalFeedback))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.Cell(0, 6, "Dibuat "+generated.Format("02-01-2006 15:04"))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func scoreCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatScore(*v)
}
