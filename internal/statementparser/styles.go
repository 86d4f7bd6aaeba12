package statementparser

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
)

// sanitizeStyles rewrites the style definitions inside an xlsx container,
// dropping the empty <fill/> elements some bank exports produce. A file that
// cannot be rewritten is returned unchanged and left to the workbook reader.
func sanitizeStyles(data []byte) []byte {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return data
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, item := range zr.File {
		rc, err := item.Open()
		if err != nil {
			return data
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return data
		}

		if item.Name == "xl/styles.xml" {
			content = []byte(strings.ReplaceAll(string(content), "<fill/>", ""))
		}

		w, err := zw.Create(item.Name)
		if err != nil {
			return data
		}
		if _, err := w.Write(content); err != nil {
			return data
		}
	}
	if err := zw.Close(); err != nil {
		return data
	}
	return out.Bytes()
}
