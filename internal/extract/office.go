package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractDOCX reads a DOCX file (ZIP+XML) and extracts paragraph text plus the
// core-properties author when present.
func extractDOCX(r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read docx: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("open docx zip: %w", err)
	}

	var res Result
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			rc, err := f.Open()
			if err != nil {
				return Result{}, err
			}
			res.Text = parseDOCXBody(rc)
			rc.Close()
		case "docProps/core.xml":
			rc, err := f.Open()
			if err != nil {
				continue
			}
			parseDOCXProps(rc, &res)
			rc.Close()
		}
	}
	if res.Text == "" {
		return Result{}, fmt.Errorf("word/document.xml not found in docx")
	}
	return res, nil
}

func parseDOCXBody(r io.Reader) string {
	var sb strings.Builder
	decoder := xml.NewDecoder(r)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "t":
			var content struct {
				Text string `xml:",chardata"`
			}
			if err := decoder.DecodeElement(&content, &se); err == nil {
				sb.WriteString(content.Text)
			}
		case "p":
			sb.WriteString("\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

func parseDOCXProps(r io.Reader, res *Result) {
	var props struct {
		Creator  string `xml:"creator"`
		Created  string `xml:"created"`
		Modified string `xml:"modified"`
	}
	if err := xml.NewDecoder(r).Decode(&props); err != nil {
		return
	}
	res.Author = props.Creator
	res.CreatedAt = trimISODate(props.Created)
	res.LastModified = trimISODate(props.Modified)
}

// trimISODate keeps the date part of an ISO-8601 timestamp.
func trimISODate(s string) string {
	if before, _, ok := strings.Cut(s, "T"); ok {
		return before
	}
	return s
}

// extractXLSX reads an XLSX file and returns all cell values tab/newline
// separated, one sheet after another.
func extractXLSX(r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read xlsx: %w", err)
	}

	xf, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer xf.Close()

	var sb strings.Builder
	for _, sheet := range xf.GetSheetList() {
		rows, err := xf.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
	}

	res := Result{Text: strings.TrimSpace(sb.String())}
	if props, err := xf.GetDocProps(); err == nil && props != nil {
		res.Author = props.Creator
		res.CreatedAt = trimISODate(props.Created)
		res.LastModified = trimISODate(props.Modified)
	}
	return res, nil
}
