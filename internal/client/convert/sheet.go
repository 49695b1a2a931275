package convert

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html"
	"strings"

	"github.com/dmitrijs2005/gophview/internal/common"
	"github.com/xuri/excelize/v2"
)

// xlsxToHTML renders the first worksheet as a table.
func xlsxToHTML(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: open workbook: %v", common.ErrConversion, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", common.ErrConversion)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("%w: read sheet %q: %v", common.ErrConversion, sheets[0], err)
	}
	return tableHTML(sheets[0], rows), nil
}

func csvToHTML(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("%w: parse csv: %v", common.ErrConversion, err)
	}
	return tableHTML("", rows), nil
}

// tableHTML pads ragged rows to the widest one.
func tableHTML(caption string, rows [][]string) string {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	var b strings.Builder
	b.WriteString("<table>")
	if caption != "" {
		b.WriteString("<caption>" + html.EscapeString(caption) + "</caption>")
	}
	for _, row := range rows {
		b.WriteString("<tr>")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString("<td>" + html.EscapeString(cell) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}
