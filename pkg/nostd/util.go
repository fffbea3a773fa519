package nostd

import (
	"regexp"
	"strings"
)

var symbolPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// CleanSymbol 去掉代币符号里的美元前缀和空白
func CleanSymbol(symbol string) string {
	symbol = strings.ReplaceAll(symbol, "$", "")
	return strings.TrimSpace(symbol)
}

// IsValidSymbol 符号只允许字母数字且长度不小于2
func IsValidSymbol(symbol string) bool {
	if len(symbol) < 2 {
		return false
	}
	return symbolPattern.MatchString(symbol)
}

// Truncate 截断字符串到指定长度
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
