package utils

import (
	"crypto/rand"
	"errors"
	"math/big"
	"os"
	"regexp"
	"strconv"
	"strings"
)

//
// ===========================================================
//  ENV UTILITIES
// ===========================================================
//

// EnvOrDefault returns ENV value or fallback default.
func EnvOrDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

//
// ===========================================================
//  UPDATE PAYLOAD HELPERS
// ===========================================================
//

// SnakeCaseKeys rewrites camelCase JSON keys to column names so partial
// update payloads can be handed to the ORM directly.
func SnakeCaseKeys(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for key, value := range m {
		out[camelToSnake(key)] = value
	}
	return out
}

func camelToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

//
// ===========================================================
//  PHONE HELPERS
// ===========================================================
//

var phoneDigits = regexp.MustCompile(`[^0-9]`)

// NormalizePhone strips everything but digits ("010-1111-2222" -> "01011112222").
func NormalizePhone(phone string) string {
	return phoneDigits.ReplaceAllString(strings.TrimSpace(phone), "")
}

// IsValidPhone reports whether the value is a plausible SMS recipient:
// digits only, at least 9 of them.
func IsValidPhone(phone string) bool {
	p := NormalizePhone(phone)
	return len(p) >= 9
}

//
// ===========================================================
//  ROOM PASSCODE
// ===========================================================
//

// GenerateRoomPasscode derives a door code from the room number: building A
// multiplies the number by 4, building B by 5, and the result is prefixed
// with a random digit and a literal zero. e.g. A101 -> "70404".
func GenerateRoomPasscode(roomNumber string) (string, error) {
	roomNumber = strings.ToUpper(strings.TrimSpace(roomNumber))
	if len(roomNumber) < 2 {
		return "", errors.New("invalid room number")
	}

	number, err := strconv.Atoi(roomNumber[1:])
	if err != nil {
		return "", errors.New("invalid room number")
	}

	var base int
	switch roomNumber[0] {
	case 'A':
		base = number * 4
	case 'B':
		base = number * 5
	default:
		return "", errors.New("unknown building")
	}

	digit, err := rand.Int(rand.Reader, big.NewInt(10))
	if err != nil {
		return "", err
	}

	return digit.String() + "0" + strconv.Itoa(base), nil
}
