package imaging

// MeetsMinimum reports whether both dimensions reach their thresholds (inclusive)
func MeetsMinimum(width, height, minWidth, minHeight int) bool {
	return width >= minWidth && height >= minHeight
}
