package export

import (
	"fmt"
	"io"

	"aijobsdash/services/dashboard/internal/models"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Postings"

// Columns is the header row of the export, derived columns included.
var Columns = []string{
	"job_title",
	"company_name",
	"company_location",
	"employee_residence",
	"experience_level",
	"experience_level_full",
	"remote_ratio",
	"work_type",
	"salary_usd",
	"required_skills",
	"industry",
	"education_required",
	"benefits_score",
	"posting_date",
	"application_deadline",
}

func row(p models.JobPosting) []interface{} {
	return []interface{}{
		p.JobTitle,
		p.CompanyName,
		p.CompanyLocation,
		p.EmployeeResidence,
		p.ExperienceLevel,
		p.ExperienceLevelFull(),
		p.RemoteRatio,
		p.WorkType(),
		p.SalaryUSD,
		p.RequiredSkills,
		p.Industry,
		p.EducationRequired,
		p.BenefitsScore,
		p.PostingDate.Format(models.DateLayout),
		p.ApplicationDeadline.Format(models.DateLayout),
	}
}

// WriteXLSX streams table as a single-sheet workbook to w.
func WriteXLSX(w io.Writer, table *models.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < table.Len(); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(table.At(i))
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	return f.Write(w)
}
