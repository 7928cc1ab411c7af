package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordCitationLabel(t *testing.T) {
	rec := SourceRecord{
		OriginalRecipe: "Cá kho",
		Newspaper:      "Phụ Nữ Tân Văn",
		Date:           "May 10, 2020",
	}
	assert.Equal(t, "Cá kho (Phụ Nữ Tân Văn, May 10, 2020)", recordCitationLabel(rec))

	rec.OriginalRecipe = ""
	assert.Equal(t, "Unknown Recipe", recordCitationLabel(rec))
}

func TestCitationLabelFallbacks(t *testing.T) {
	assert.Equal(t, "đã có (Báo, May 10, 2020)", citationLabel(Metadata{CitationLabel: "đã có (Báo, May 10, 2020)"}))
	assert.Equal(t, "Cá kho (Báo, May 10, 2020)", citationLabel(Metadata{
		OriginalRecipe: "Cá kho", Newspaper: "Báo", Date: "May 10, 2020",
	}))
	assert.Equal(t, "Unknown Source", citationLabel(Metadata{}))
}

func TestLocalizeDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		date string
		want string
	}{
		{"full month name", "Cá kho (Báo, May 10, 2020)", "May 10, 2020", "Cá kho (Báo, 10 tháng 5, 2020)"},
		{"abbreviated month", "đăng ngày Jan 2, 1935", "Jan 2, 1935", "đăng ngày 2 tháng 1, 1935"},
		{"unparseable date unchanged", "đăng ngày 10/05/2020", "10/05/2020", "đăng ngày 10/05/2020"},
		{"empty date unchanged", "văn bản", "", "văn bản"},
		{"date absent from text", "không chứa ngày", "May 10, 2020", "không chứa ngày"},
		{"surrounding whitespace tolerated", "ngày May 10, 2020", "  May 10, 2020 ", "ngày 10 tháng 5, 2020"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LocalizeDate(tt.text, tt.date))
		})
	}
}

func TestLocalizeDateIdempotent(t *testing.T) {
	once := LocalizeDate("Cá kho (Báo, May 10, 2020)", "May 10, 2020")
	twice := LocalizeDate(once, "May 10, 2020")
	assert.Equal(t, once, twice)
}
