package numex

import "strings"

var romanDigits = map[byte]int{
	'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000,
}

var romanTable = []struct {
	value int
	text  string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// RomanValue reads an uppercase roman numeral of at least two letters in
// canonical form ("XIV", not "XIIII"). Single letters are too ambiguous
// with initials to be read as numbers.
func RomanValue(s string) (int, bool) {
	if len(s) < 2 || len(s) > 15 {
		return 0, false
	}
	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := romanDigits[s[i]]
		if !ok {
			return 0, false
		}
		if i+1 < len(s) && v < romanDigits[s[i+1]] {
			total -= v
		} else {
			total += v
		}
	}
	if total <= 0 || total > 3999 || ToRoman(total) != s {
		return 0, false
	}
	return total, true
}

// ToRoman renders 1..3999 as a roman numeral; other values give "".
func ToRoman(n int) string {
	if n <= 0 || n > 3999 {
		return ""
	}
	var sb strings.Builder
	for _, e := range romanTable {
		for n >= e.value {
			sb.WriteString(e.text)
			n -= e.value
		}
	}
	return sb.String()
}
