package manager

const ellipsis = "..."

// TrimMiddle укорачивает строку до max рун, вырезая середину.
func TrimMiddle(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return string(runes[:max])
	}

	keep := max - len(ellipsis)
	head := (keep + 1) / 2
	tail := keep - head

	return string(runes[:head]) + ellipsis + string(runes[len(runes)-tail:])
}
