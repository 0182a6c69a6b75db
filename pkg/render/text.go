package render

const ellipsis = "..."

// FitText shortens text until it fits maxWidth as measured by width,
// marking the cut with "...". Text that already fits is returned as is.
func FitText(text string, maxWidth float64, width func(string) float64) string {
	if width(text) <= maxWidth {
		return text
	}
	r := []rune(text)
	for len(r) > 0 {
		r = r[:len(r)-1]
		if width(string(r)+ellipsis) <= maxWidth {
			break
		}
	}
	return string(r) + ellipsis
}
