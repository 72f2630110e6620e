package ingest

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/VilyWonca/KAF-BACK/model"
)

// DocumentInfo carries the PDF's embedded metadata dictionary values.
// Any of the fields may be empty.
type DocumentInfo struct {
	Title    string
	Author   string
	Producer string
}

// ExtractPages extracts the raw text of every page of a PDF together
// with the embedded document metadata. Pages that yield no text are
// skipped; page numbers are 1-based.
func ExtractPages(path string) (pages []model.PageText, info DocumentInfo, err error) {
	// the reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, DocumentInfo{}, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	infoDict := reader.Trailer().Key("Info")
	info = DocumentInfo{
		Title:    infoString(infoDict.Key("Title")),
		Author:   infoString(infoDict.Key("Author")),
		Producer: infoString(infoDict.Key("Producer")),
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil || text == "" {
			continue
		}

		pages = append(pages, model.PageText{
			SourceFile: path,
			PageNumber: i,
			RawText:    text,
		})
	}

	return pages, info, nil
}

func infoString(v pdf.Value) string {
	if v.Kind() == pdf.String {
		return v.RawString()
	}
	return ""
}
