package ds3231

// decToBcd converts int to BCD
func decToBcd(dec int) uint8 {
	return uint8(dec + 6*(dec/10))
}

// bcdToDec converts BCD to int
func bcdToDec(bcd uint8) int {
	return int(bcd - 6*(bcd>>4))
}

// validBCD reports whether both nibbles hold a decimal digit.
func validBCD(b uint8) bool {
	return b&0x0F <= 9 && b>>4 <= 9
}
