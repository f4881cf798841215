package resume

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pdfTitleFontSize   = 18.0
	pdfHeadingFontSize = 13.0
	pdfBodyFontSize    = 10.5
	pdfLineHeight      = 5.5
	pdfSectionGap      = 4.0
)

// ExportPDF renders the resume as a single-column A4 PDF document.
func ExportPDF(title string, content Content, output io.Writer) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(18, 16, 18)
	doc.AddPage()

	header := content.PersonalInfo.FullName
	if header == "" {
		header = title
	}
	doc.SetFont("Helvetica", "B", pdfTitleFontSize)
	doc.CellFormat(0, 9, header, "", 1, "C", false, 0, "")

	contact := contactLine(content.PersonalInfo)
	if contact != "" {
		doc.SetFont("Helvetica", "", pdfBodyFontSize)
		doc.CellFormat(0, pdfLineHeight, contact, "", 1, "C", false, 0, "")
	}
	doc.Ln(pdfSectionGap)

	if content.Summary != "" {
		writePDFHeading(doc, "Summary")
		doc.SetFont("Helvetica", "", pdfBodyFontSize)
		doc.MultiCell(0, pdfLineHeight, content.Summary, "", "L", false)
		doc.Ln(pdfSectionGap)
	}

	if len(content.Experience) > 0 {
		writePDFHeading(doc, "Experience")
		for _, entry := range content.Experience {
			doc.SetFont("Helvetica", "B", pdfBodyFontSize)
			doc.CellFormat(0, pdfLineHeight, entryTitle(entry.Title, entry.Organization), "", 1, "L", false, 0, "")
			if span := dateSpan(entry.StartDate, entry.EndDate); span != "" {
				doc.SetFont("Helvetica", "I", pdfBodyFontSize)
				doc.CellFormat(0, pdfLineHeight, span, "", 1, "L", false, 0, "")
			}
			if entry.Description != "" {
				doc.SetFont("Helvetica", "", pdfBodyFontSize)
				doc.MultiCell(0, pdfLineHeight, entry.Description, "", "L", false)
			}
			doc.Ln(2)
		}
		doc.Ln(pdfSectionGap - 2)
	}

	if len(content.Education) > 0 {
		writePDFHeading(doc, "Education")
		for _, entry := range content.Education {
			doc.SetFont("Helvetica", "B", pdfBodyFontSize)
			doc.CellFormat(0, pdfLineHeight, entryTitle(entry.School, entry.Degree), "", 1, "L", false, 0, "")
			detail := dateSpan(entry.StartYear, entry.EndYear)
			if entry.GPA != "" {
				if detail != "" {
					detail += "  "
				}
				detail += fmt.Sprintf("GPA: %s", entry.GPA)
			}
			if detail != "" {
				doc.SetFont("Helvetica", "", pdfBodyFontSize)
				doc.CellFormat(0, pdfLineHeight, detail, "", 1, "L", false, 0, "")
			}
			doc.Ln(2)
		}
		doc.Ln(pdfSectionGap - 2)
	}

	if len(content.Skills) > 0 {
		writePDFHeading(doc, "Skills")
		doc.SetFont("Helvetica", "", pdfBodyFontSize)
		doc.MultiCell(0, pdfLineHeight, skillsLine(content.Skills), "", "L", false)
	}

	return doc.Output(output)
}

func writePDFHeading(doc *fpdf.Fpdf, heading string) {
	doc.SetFont("Helvetica", "B", pdfHeadingFontSize)
	doc.CellFormat(0, 7, heading, "B", 1, "L", false, 0, "")
	doc.Ln(1.5)
}

func contactLine(info PersonalInfo) string {
	parts := make([]string, 0, 4)
	for _, value := range []string{info.Email, info.Phone, info.Location, info.Website} {
		if value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, "  |  ")
}

func entryTitle(primary, secondary string) string {
	switch {
	case primary != "" && secondary != "":
		return fmt.Sprintf("%s, %s", primary, secondary)
	case primary != "":
		return primary
	default:
		return secondary
	}
}

func dateSpan(start, end string) string {
	switch {
	case start != "" && end != "":
		return fmt.Sprintf("%s - %s", start, end)
	case start != "":
		return fmt.Sprintf("%s - Present", start)
	default:
		return end
	}
}

func skillsLine(skills []SkillEntry) string {
	parts := make([]string, 0, len(skills))
	for _, skill := range skills {
		if skill.Name == "" {
			continue
		}
		if skill.Level != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", skill.Name, skill.Level))
			continue
		}
		parts = append(parts, skill.Name)
	}
	return strings.Join(parts, ", ")
}
