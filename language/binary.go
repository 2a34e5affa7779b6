package language

import "unicode/utf8"

// sniffSize is how much of a file's head is inspected for binary markers.
const sniffSize = 512

// IsBinaryContent checks if the given byte slice appears to be binary content.
// Only the first 512 bytes are inspected; a null byte there marks the data as binary.
func IsBinaryContent(data []byte) bool {
	if len(data) > sniffSize {
		data = data[:sniffSize]
	}
	for _, b := range data {
		if b == 0 {
			return true
		}
	}
	return false
}

// Encoding labels.
const (
	EncodingUTF8   = "utf-8"
	EncodingBinary = "binary"
	EncodingOther  = "unknown"
)

// DetectEncoding returns a coarse encoding label for file content.
func DetectEncoding(data []byte) string {
	switch {
	case IsBinaryContent(data):
		return EncodingBinary
	case utf8.Valid(data):
		return EncodingUTF8
	default:
		return EncodingOther
	}
}
