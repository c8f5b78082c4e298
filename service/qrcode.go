package service

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/skip2/go-qrcode"
)

// QRService renders the code printed on each table for QR ordering
type QRService struct {
	BaseURL string
	Size    int
}

func NewQRService(baseURL string) *QRService {
	return &QRService{BaseURL: strings.TrimSuffix(baseURL, "/"), Size: 256}
}

// OrderingURL is the front-end entry point encoded in a table's QR code
func (q *QRService) OrderingURL(table string) string {
	return q.BaseURL + "/ordering/qr?table=" + url.QueryEscape(table)
}

// Generate returns a PNG for the given table number
func (q *QRService) Generate(table string) ([]byte, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, invalid("table_number", "Table number may not be blank.")
	}
	if utf8.RuneCountInString(table) > maxTableNumberLen {
		return nil, invalid("table_number", "Ensure this field has no more than %d characters.", maxTableNumberLen)
	}
	png, err := qrcode.Encode(q.OrderingURL(table), qrcode.Medium, q.Size)
	if err != nil {
		return nil, &PersistenceError{Op: "encode qr code", Err: err}
	}
	return png, nil
}
