package service

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	reportNumberDigits = 5
	reportNumberMax    = 99999
)

// ParseReportNumber splits a report number such as "AB00042" into its letter
// prefix and numeric suffix.
func ParseReportNumber(value string) (string, int, error) {
	if len(value) <= reportNumberDigits {
		return "", 0, fmt.Errorf("%w: malformed report number %q", ErrInvalidInput, value)
	}
	split := len(value) - reportNumberDigits
	letters, digits := value[:split], value[split:]

	for _, r := range letters {
		if r < 'A' || r > 'Z' {
			return "", 0, fmt.Errorf("%w: malformed report number %q", ErrInvalidInput, value)
		}
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", 0, fmt.Errorf("%w: malformed report number %q", ErrInvalidInput, value)
		}
	}

	number, err := strconv.Atoi(digits)
	if err != nil || number < 1 {
		return "", 0, fmt.Errorf("%w: malformed report number %q", ErrInvalidInput, value)
	}
	return letters, number, nil
}

func FormatReportNumber(letters string, number int) string {
	return fmt.Sprintf("%s%0*d", letters, reportNumberDigits, number)
}

// NextReportNumber returns the number allocated after current. An empty
// current starts the sequence at A00001. After 99999 the trailing letter
// advances; a trailing Z grows the prefix by one letter, all A.
func NextReportNumber(current string) (string, error) {
	if current == "" {
		return FormatReportNumber("A", 1), nil
	}

	letters, number, err := ParseReportNumber(current)
	if err != nil {
		return "", err
	}

	if number < reportNumberMax {
		return FormatReportNumber(letters, number+1), nil
	}

	last := letters[len(letters)-1]
	if last == 'Z' {
		return FormatReportNumber(strings.Repeat("A", len(letters)+1), 1), nil
	}
	return FormatReportNumber(letters[:len(letters)-1]+string(last+1), 1), nil
}
