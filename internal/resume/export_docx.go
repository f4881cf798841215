package resume

import (
	"fmt"
	"io"

	"baliance.com/gooxml/document"
	"baliance.com/gooxml/measurement"
	"baliance.com/gooxml/schema/soo/wml"
)

// ExportDOCX renders the resume as a Word document mirroring the PDF
// layout.
func ExportDOCX(title string, content Content, output io.Writer) error {
	doc := document.New()

	header := content.PersonalInfo.FullName
	if header == "" {
		header = title
	}
	headerPara := doc.AddParagraph()
	headerPara.Properties().SetAlignment(wml.ST_JcCenter)
	headerRun := headerPara.AddRun()
	headerRun.Properties().SetBold(true)
	headerRun.Properties().SetSize(16 * measurement.Point)
	headerRun.AddText(header)

	if contact := contactLine(content.PersonalInfo); contact != "" {
		contactPara := doc.AddParagraph()
		contactPara.Properties().SetAlignment(wml.ST_JcCenter)
		contactPara.AddRun().AddText(contact)
	}

	if content.Summary != "" {
		writeDOCXHeading(doc, "Summary")
		doc.AddParagraph().AddRun().AddText(content.Summary)
	}

	if len(content.Experience) > 0 {
		writeDOCXHeading(doc, "Experience")
		for _, entry := range content.Experience {
			titleRun := doc.AddParagraph().AddRun()
			titleRun.Properties().SetBold(true)
			titleRun.AddText(entryTitle(entry.Title, entry.Organization))
			if span := dateSpan(entry.StartDate, entry.EndDate); span != "" {
				spanRun := doc.AddParagraph().AddRun()
				spanRun.Properties().SetItalic(true)
				spanRun.AddText(span)
			}
			if entry.Description != "" {
				doc.AddParagraph().AddRun().AddText(entry.Description)
			}
		}
	}

	if len(content.Education) > 0 {
		writeDOCXHeading(doc, "Education")
		for _, entry := range content.Education {
			titleRun := doc.AddParagraph().AddRun()
			titleRun.Properties().SetBold(true)
			titleRun.AddText(entryTitle(entry.School, entry.Degree))
			detail := dateSpan(entry.StartYear, entry.EndYear)
			if entry.GPA != "" {
				if detail != "" {
					detail += "  "
				}
				detail += fmt.Sprintf("GPA: %s", entry.GPA)
			}
			if detail != "" {
				doc.AddParagraph().AddRun().AddText(detail)
			}
		}
	}

	if len(content.Skills) > 0 {
		writeDOCXHeading(doc, "Skills")
		doc.AddParagraph().AddRun().AddText(skillsLine(content.Skills))
	}

	return doc.Save(output)
}

func writeDOCXHeading(doc *document.Document, heading string) {
	para := doc.AddParagraph()
	run := para.AddRun()
	run.Properties().SetBold(true)
	run.Properties().SetSize(12 * measurement.Point)
	run.AddText(heading)
}
