// Package export writes stored contacts to spreadsheet files.
package export

import (
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"leadhunt-engine/internal/domain"
)

const sheetName = "Contacts"

var header = []string{
	"First name", "Last name", "Company", "Email", "Phone", "Role", "Status",
	"Lead score", "Estimated value", "Tags", "Source", "Source URL", "Created", "Notes",
}

// WriteContactsXLSX writes one sheet with a header row and one row per
// contact, in the order given.
func WriteContactsXLSX(w io.Writer, contacts []domain.Contact) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	row := sheet.AddRow()
	for _, h := range header {
		row.AddCell().SetString(h)
	}

	for _, c := range contacts {
		row := sheet.AddRow()
		for _, v := range []string{c.FirstName, c.LastName, c.Company, c.Email, c.Phone, c.Role, c.Status} {
			row.AddCell().SetString(v)
		}
		row.AddCell().SetInt(c.LeadScore)
		for _, v := range []string{
			c.EstimatedValue,
			strings.Join(c.Tags, ", "),
			c.Source,
			c.SourceURL,
			c.CreatedAt.UTC().Format(time.RFC3339),
			c.Notes,
		} {
			row.AddCell().SetString(v)
		}
	}

	return eris.Wrap(f.Write(w), "export: write workbook")
}
