package uploadhttp

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/internal/usecase/uploadsvc"
	"github.com/sir_venger/upload_lite/pkg/httperrors"
	"github.com/sir_venger/upload_lite/pkg/pluploadproto"
)

// multipartOverhead — запас на заголовки и служебные поля формы поверх самого чанка.
const multipartOverhead = 1 << 20

// newChunkRequest разбирает запрос виджета. Multipart-форма читается целиком,
// для сырого тела параметры берутся из query-строки.
func (a *Server) newChunkRequest(w http.ResponseWriter, r *http.Request) (uploadsvc.ChunkRequest, error) {
	limit := a.Cfg.Upload.MaxChunkBytes

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if limit > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
		}
		return parseMultipartChunk(r, limit)
	}

	return parseRawChunk(r, limit)
}

func parseMultipartChunk(r *http.Request, limit int64) (uploadsvc.ChunkRequest, error) {
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return uploadsvc.ChunkRequest{}, fmt.Errorf("%w: %v", httperrors.ErrTooLarge, err)
		}
		return uploadsvc.ChunkRequest{}, fmt.Errorf("%w: %v", models.ErrInvalidChunk, err)
	}
	defer r.MultipartForm.RemoveAll()

	req, err := chunkFields(r.MultipartForm.Value)
	if err != nil {
		return req, err
	}

	part, hdr, err := r.FormFile(pluploadproto.FieldFile)
	if err != nil {
		return req, fmt.Errorf("%w: missing %q part: %v", models.ErrInvalidChunk, pluploadproto.FieldFile, err)
	}
	defer part.Close()

	if req.Name == "" {
		req.Name = hdr.Filename
	}
	if limit > 0 && hdr.Size > limit {
		return req, fmt.Errorf("%w: %d bytes, limit %d", httperrors.ErrTooLarge, hdr.Size, limit)
	}

	req.Data, err = io.ReadAll(part)
	if err != nil {
		return req, err
	}

	return req, nil
}

func parseRawChunk(r *http.Request, limit int64) (uploadsvc.ChunkRequest, error) {
	req, err := chunkFields(r.URL.Query())
	if err != nil {
		return req, err
	}
	if req.FileID == "" {
		req.FileID = strings.TrimSpace(r.Header.Get(pluploadproto.HeaderFileID))
	}

	body := io.Reader(r.Body)
	if limit > 0 {
		body = io.LimitReader(r.Body, limit+1)
	}
	req.Data, err = io.ReadAll(body)
	if err != nil {
		return req, err
	}
	if limit > 0 && int64(len(req.Data)) > limit {
		return req, fmt.Errorf("%w: limit %d", httperrors.ErrTooLarge, limit)
	}

	return req, nil
}

// chunkFields читает id, name, size, chunk и chunks. Для нечанковой загрузки
// chunk и chunks отсутствуют, тогда файл считается одним чанком.
func chunkFields(values map[string][]string) (uploadsvc.ChunkRequest, error) {
	get := func(key string) string {
		if vs := values[key]; len(vs) > 0 {
			return strings.TrimSpace(vs[0])
		}
		return ""
	}

	req := uploadsvc.ChunkRequest{
		FileID: get(pluploadproto.FieldID),
		Name:   get(pluploadproto.FieldName),
	}

	var err error
	if req.Index, err = atoiField(pluploadproto.FieldChunk, get(pluploadproto.FieldChunk)); err != nil {
		return req, err
	}
	if req.Total, err = atoiField(pluploadproto.FieldChunks, get(pluploadproto.FieldChunks)); err != nil {
		return req, err
	}
	if s := get(pluploadproto.FieldSize); s != "" {
		size, err := strconv.ParseInt(s, 10, 64)
		if err != nil || size < 0 {
			return req, fmt.Errorf("%w: invalid %s %q", models.ErrInvalidChunk, pluploadproto.FieldSize, s)
		}
		req.Size = size
	}

	return req, nil
}

func atoiField(name, value string) (int, error) {
	if value == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", models.ErrInvalidChunk, name, value)
	}

	return n, nil
}
