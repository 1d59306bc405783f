package utils

// TruncateRunes memotong teks ke maksimal n rune supaya preview
// tidak memotong karakter multi-byte di tengah
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
