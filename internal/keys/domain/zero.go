package domain

// Zero overwrites a byte slice with zeros so released key material does not linger.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
