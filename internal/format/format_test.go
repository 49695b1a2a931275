package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		declared string
		file     string
		want     Class
	}{
		{"word", "", Office},
		{"DOCX", "", Office},
		{".xlsx", "", Office},
		{"application/vnd.openxmlformats-officedocument.presentationml.presentation", "", Office},
		{"pdf", "", PDF},
		{"Application/PDF; charset=binary", "", PDF},
		{"image/png", "", Image},
		{"image/x-custom", "", Image},
		{"video/mp4", "", Video},
		{"webm", "", Video},
		{"zip", "", Archive},
		{"archive", "", Archive},
		{"link", "", Hyperlink},
		{"", "report.PDF", PDF},
		{"binary", "photo.jpeg", Image},
		{"application/octet-stream", "deck.pptx", Office},
		{"", "", Unknown},
		{"something-else", "noext", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.declared+"|"+tt.file, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.declared, tt.file))
		})
	}
}

func TestClassify_DeclaredTypeWinsOverExtension(t *testing.T) {
	assert.Equal(t, PDF, Classify("pdf", "scan.png"))
}

func TestOfficeFamily(t *testing.T) {
	assert.Equal(t, FamilyWord, OfficeFamily("word", ""))
	assert.Equal(t, FamilyWord, OfficeFamily("", "letter.docx"))
	assert.Equal(t, FamilySpreadsheet, OfficeFamily("excel", ""))
	assert.Equal(t, FamilySpreadsheet, OfficeFamily("", "budget.xlsx"))
	assert.Equal(t, FamilyPresentation, OfficeFamily("ppt", ""))
	assert.Equal(t, FamilyNone, OfficeFamily("pdf", ""))
	assert.Equal(t, FamilyNone, OfficeFamily("", ""))
}
