package util

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// GenerateTimestampWithPrefix builds a sortable identifier such as
// "RG-1700000000000000000".
func GenerateTimestampWithPrefix(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// GenerateTicketCode builds the redemption token presented at the venue,
// bound to a registration identifier.
func GenerateTicketCode(registrationID string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("REG-%s-%s", registrationID, suffix)
}

// VerifyTicketCode checks the redemption token's shape without touching
// storage.
func VerifyTicketCode(code string) bool {
	return strings.HasPrefix(code, "REG-") && len(strings.Split(code, "-")) >= 3
}

// GenerateQRCodeImage renders the redemption token as a PNG data URL.
func GenerateQRCodeImage(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(png)), nil
}
