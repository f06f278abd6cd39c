package referral

import (
	"errors"
	"math/rand"
	"strconv"

	luhn "github.com/EClaesson/go-luhn"
)

// Referral codes are eight digits: seven random plus a Luhn check digit,
// so a mistyped code is rejected before any lookup.
const codeBodyLen = 7

var ErrInvalidCode = errors.New("invalid referral code")

func NewCode() (string, error) {
	body := make([]byte, codeBodyLen)
	body[0] = byte('1' + rand.Intn(9))
	for i := 1; i < codeBodyLen; i++ {
		body[i] = byte('0' + rand.Intn(10))
	}

	for digit := 0; digit <= 9; digit++ {
		candidate := string(body) + strconv.Itoa(digit)
		ok, err := luhn.IsValid(candidate)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}
	return "", ErrInvalidCode
}

func ValidateCode(code string) error {
	if len(code) != codeBodyLen+1 {
		return ErrInvalidCode
	}
	ok, err := luhn.IsValid(code)
	if err != nil || !ok {
		return ErrInvalidCode
	}
	return nil
}
