// internal/domain/vault/luhn.go
package vault

// luhnValid runs the Luhn checksum over a card number. Non-digit input fails
// the check rather than being stripped.
func luhnValid(number string) bool {
	if len(number) < 12 {
		return false
	}

	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}

	return sum%10 == 0
}
