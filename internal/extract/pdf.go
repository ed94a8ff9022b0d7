package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func extractPDF(r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read pdf: %w", err)
	}

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("parse pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= pdfReader.NumPage(); i++ {
		p := pdfReader.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	res := Result{
		Text:      strings.TrimSpace(sb.String()),
		PageCount: pdfReader.NumPage(),
	}

	// The trailer Info dictionary is optional; absent keys stay empty.
	info := pdfReader.Trailer().Key("Info")
	res.Author = infoString(info, "Author")
	res.CreatedAt = formatPDFDate(infoString(info, "CreationDate"))
	res.LastModified = formatPDFDate(infoString(info, "ModDate"))

	// Some generators produce page trees ledongthuc/pdf miscounts; trust
	// pdfcpu's relaxed validation when it disagrees.
	if n, err := pdfPageCount(data); err == nil && n > 0 {
		res.PageCount = n
	}

	return res, nil
}

func pdfPageCount(data []byte) (int, error) {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	return pdfapi.PageCount(bytes.NewReader(data), conf)
}

func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.Kind() != pdf.String {
		return ""
	}
	return strings.TrimSpace(v.RawString())
}

// formatPDFDate converts a PDF date string ("D:20230915143000Z...") into
// "2006-01-02". Strings that don't parse are returned unchanged.
func formatPDFDate(s string) string {
	raw := strings.TrimPrefix(s, "D:")
	if len(raw) < 8 {
		return s
	}
	t, err := time.Parse("20060102", raw[:8])
	if err != nil {
		return s
	}
	return t.Format("2006-01-02")
}
