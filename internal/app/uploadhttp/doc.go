// Package uploadhttp реализует HTTP-интерфейс сервера загрузок, с которым работает
// браузерный виджет чанковой загрузки. Основные эндпоинты:
//   - POST /upload — принимает один чанк (multipart: id, name, chunk, chunks, file
//     или сырое тело с теми же параметрами в query) и дописывает его в файл.
//   - GET /files, POST /files, DELETE /files/{id} — очередь загрузки.
//   - POST /upload/start, POST /upload/stop — старт и остановка загрузки.
//   - GET /manager — состояние менеджера загрузки (строки файлов, кнопки, фаза).
//   - POST /admin/gc — ручная очистка брошенных загрузок.
//   - GET /health — агрегированные метрики по каталогу загрузок.
package uploadhttp
