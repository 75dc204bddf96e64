// Package pluploadproto описывает протокол HTTP-взаимодействия виджета загрузки с сервером.
package pluploadproto

// Пути REST-протокола.
const (
	PathUpload  = "/upload"
	PathStart   = "/upload/start"
	PathStop    = "/upload/stop"
	PathFiles   = "/files"
	PathManager = "/manager"
	PathHealth  = "/health"
	PathGC      = "/admin/gc"
)

// Поля multipart-формы (или query-параметры при загрузке сырым телом).
const (
	FieldID     = "id"
	FieldName   = "name"
	FieldSize   = "size"
	FieldChunk  = "chunk"
	FieldChunks = "chunks"
	FieldFile   = "file"
	FieldStatus = "status"
)

// HeaderFileID дублирует идентификатор файла для загрузок без формы.
const HeaderFileID = "X-File-Id"
