package workbook

import (
	"bytes"
	"strings"

	"github.com/jhillyerd/enmime"
)

// openMail returns the first spreadsheet attachment of a saved message.
func openMail(data []byte) (Workbook, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	parts := append(append([]*enmime.Part{}, env.Attachments...), env.Inlines...)
	var lastErr error
	for _, att := range parts {
		filename := strings.TrimSpace(att.FileName)
		if !SupportedExt(filename) || strings.HasSuffix(strings.ToLower(filename), ".eml") {
			continue
		}
		wb, err := OpenBytes(filename, att.Content)
		if err != nil {
			lastErr = err
			continue
		}
		return wb, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNoSpreadsheet
}
