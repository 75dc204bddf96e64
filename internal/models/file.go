package models

import "time"

// Status — состояние файла в очереди загрузки.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusUploading Status = "uploading"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
)

// Pending сообщает, ждёт ли файл ещё чанков.
func (s Status) Pending() bool {
	return s == StatusQueued || s == StatusUploading
}

// UploadFile описывает файл, который виджет загрузки передаёт по частям.
// Loaded и Percent относятся к текущей загрузке: повторная загрузка начинает
// счёт с нуля, даже если файл назначения дописывается к прежним байтам.
type UploadFile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Loaded    int64     `json:"loaded"`
	Percent   int64     `json:"percent"`
	Status    Status    `json:"status"`
	Chunks    int       `json:"chunks"`
	NextChunk int       `json:"next_chunk"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Progress пересчитывает процент загрузки: по байтам, если размер известен,
// иначе по числу принятых чанков.
func (f UploadFile) Progress() int64 {
	if f.Status == StatusDone {
		return 100
	}

	var pct int64
	switch {
	case f.Size > 0:
		pct = f.Loaded * 100 / f.Size
	case f.Chunks > 0:
		pct = int64(f.NextChunk) * 100 / int64(f.Chunks)
	}

	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}

	return pct
}
