package chunk

import (
	"encoding/hex"
)

// encodedPrefix не входит в алфавит безопасных идентификаторов, поэтому
// закодированные имена не пересекаются с именами «как есть».
const encodedPrefix = "~"

// DestinationName выводит имя файла назначения из идентификатора файла.
// Отображение инъективно: разные идентификаторы дают разные имена, а имя
// никогда не содержит разделителей пути.
func DestinationName(fileID string) string {
	if isSafeID(fileID) {
		return fileID
	}

	return encodedPrefix + hex.EncodeToString([]byte(fileID))
}

func isSafeID(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}

	return true
}
