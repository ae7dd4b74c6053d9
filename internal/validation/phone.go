// Package validation содержит функции валидации входных данных.
package validation

import "unicode"

// IsValidPhone проверяет мобильный номер: необязательный префикс «+»,
// затем от 10 до 15 цифр. Пробелы и дефисы между цифрами допускаются.
func IsValidPhone(phone string) bool {
	if phone == "" {
		return false
	}

	digits := 0
	for i, ch := range phone {
		switch {
		case ch == '+':
			if i != 0 {
				return false
			}
		case ch == ' ' || ch == '-':
			continue
		case unicode.IsDigit(ch):
			digits++
		default:
			return false
		}
	}

	return digits >= 10 && digits <= 15
}
