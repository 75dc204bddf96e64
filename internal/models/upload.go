package models

// Chunk — одна часть файла в том порядке, в котором её прислал виджет.
type Chunk struct {
	Index int
	Total int
	Data  []byte
}

// IsLast сообщает, завершает ли чанк файл. Total <= 1 означает загрузку без разбиения.
func (c Chunk) IsLast() bool {
	if c.Total <= 1 {
		return true
	}

	return c.Index >= c.Total-1
}

// Validate проверяет позицию чанка относительно заявленного количества.
func (c Chunk) Validate() error {
	if c.Index < 0 {
		return ErrInvalidChunk
	}
	if c.Total > 0 && c.Index >= c.Total {
		return ErrInvalidChunk
	}

	return nil
}
