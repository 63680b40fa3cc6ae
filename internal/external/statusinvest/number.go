package statusinvest

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber pt-BR 숫자 파싱 ("1.234,56", "12,3%", "R$ 10,50")
// "-" 또는 빈 값은 ok=false
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSuffix(s, "%")
	s = strings.Join(strings.Fields(s), "")
	if s == "" || s == "-" || s == "--" {
		return 0, false
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
