// Package uploadclient отправляет файлы на сервер загрузок чанками так же,
// как это делает браузерный виджет: multipart-запросы с полями id, name,
// chunk, chunks и file, строго по порядку.
package uploadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sir_venger/upload_lite/internal/manager"
	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/pkg/pluploadproto"
)

// DefaultChunkSize — размер чанка по умолчанию.
const DefaultChunkSize int64 = 1 << 20

// FileSource — файл, который нужно загрузить.
type FileSource struct {
	ID     string
	Name   string
	Size   int64
	Reader io.Reader
}

type Client struct {
	baseURL   string
	http      *http.Client
	chunkSize int64
	progress  io.Writer
	log       *logrus.Entry
}

type Option func(*Client)

// WithHTTPClient подменяет HTTP-клиент.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithChunkSize задаёт размер чанка в байтах.
func WithChunkSize(n int64) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.chunkSize = n
		}
	}
}

// WithProgress включает отрисовку прогресс-бара в out. nil отключает её.
func WithProgress(out io.Writer) Option {
	return func(cl *Client) { cl.progress = out }
}

func WithLogger(log *logrus.Entry) Option {
	return func(cl *Client) { cl.log = log }
}

// New создаёт клиента для сервера по адресу baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{},
		chunkSize: DefaultChunkSize,
		progress:  os.Stdout,
		log:       logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, o := range opts {
		o(c)
	}

	return c
}

// OpenFile готовит локальный файл к загрузке. Идентификатор остаётся пустым,
// тогда сервер адресует файл по имени.
func OpenFile(path string) (FileSource, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileSource{}, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return FileSource{}, nil, err
	}
	if st.IsDir() {
		_ = f.Close()
		return FileSource{}, nil, fmt.Errorf("%s is a directory", path)
	}

	return FileSource{Name: filepath.Base(path), Size: st.Size(), Reader: f}, f.Close, nil
}

// ChunkCount — число чанков для файла размера size. Пустой файл уходит одним пустым чанком.
func ChunkCount(size, chunkSize int64) int {
	if size <= 0 {
		return 1
	}
	return int((size + chunkSize - 1) / chunkSize)
}

type chunkResponse struct {
	File models.UploadFile `json:"file"`
	Done bool              `json:"done"`
}

// UploadFile режет файл на чанки и отправляет их последовательно.
// Следующий чанк уходит только после подтверждения предыдущего.
func (c *Client) UploadFile(ctx context.Context, src FileSource) (models.UploadFile, error) {
	if src.Reader == nil {
		return models.UploadFile{}, errors.New("file source has no reader")
	}
	if src.Size < 0 {
		return models.UploadFile{}, fmt.Errorf("invalid size %d", src.Size)
	}

	total := ChunkCount(src.Size, c.chunkSize)
	bar := newFileProgress(c.progress, "Uploading "+src.Name, src.Size, total)

	log := c.log.WithField("name", src.Name)
	buf := make([]byte, c.chunkSize)

	var last models.UploadFile
	for idx := 0; idx < total; idx++ {
		n, err := io.ReadFull(src.Reader, buf)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			bar.Done(err)
			return last, err
		}

		resp, err := c.postChunk(ctx, src, idx, total, buf[:n])
		if err != nil {
			bar.Done(err)
			return last, err
		}
		last = resp.File
		bar.Acked(int64(n))
		log.WithField("chunk", idx).Debugf("chunk accepted, %d%%", last.Percent)
	}

	bar.Done(nil)
	return last, nil
}

func (c *Client) postChunk(ctx context.Context, src FileSource, idx, total int, data []byte) (chunkResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := [][2]string{
		{pluploadproto.FieldID, src.ID},
		{pluploadproto.FieldName, src.Name},
		{pluploadproto.FieldSize, strconv.FormatInt(src.Size, 10)},
		{pluploadproto.FieldChunk, strconv.Itoa(idx)},
		{pluploadproto.FieldChunks, strconv.Itoa(total)},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return chunkResponse{}, err
		}
	}
	fw, err := mw.CreateFormFile(pluploadproto.FieldFile, src.Name)
	if err != nil {
		return chunkResponse{}, err
	}
	if _, err = fw.Write(data); err != nil {
		return chunkResponse{}, err
	}
	if err = mw.Close(); err != nil {
		return chunkResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pluploadproto.PathUpload, &body)
	if err != nil {
		return chunkResponse{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out chunkResponse
	if err = c.do(req, &out); err != nil {
		return chunkResponse{}, fmt.Errorf("chunk %d/%d: %w", idx+1, total, err)
	}

	return out, nil
}

// UploadFiles загружает несколько файлов параллельно, не более limit одновременно.
// Чанки каждого файла по-прежнему идут по порядку.
func (c *Client) UploadFiles(ctx context.Context, srcs []FileSource, limit int) ([]models.UploadFile, error) {
	out := make([]models.UploadFile, len(srcs))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range srcs {
		i := i
		g.Go(func() error {
			f, err := c.UploadFile(ctx, srcs[i])
			if err != nil {
				return fmt.Errorf("upload %s: %w", srcs[i].Name, err)
			}
			out[i] = f
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

type filesBody struct {
	Files []models.UploadFile `json:"files"`
}

// ListFiles запрашивает очередь; пустой status — все файлы.
func (c *Client) ListFiles(ctx context.Context, status models.Status) ([]models.UploadFile, error) {
	u := c.baseURL + pluploadproto.PathFiles
	if status != "" {
		u += "?" + url.Values{pluploadproto.FieldStatus: {string(status)}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var out filesBody
	if err = c.do(req, &out); err != nil {
		return nil, err
	}

	return out.Files, nil
}

// Enqueue ставит файлы в очередь до начала загрузки.
func (c *Client) Enqueue(ctx context.Context, srcs []FileSource) ([]models.UploadFile, error) {
	type newFile struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name"`
		Size int64  `json:"size"`
	}
	in := struct {
		Files []newFile `json:"files"`
	}{Files: make([]newFile, 0, len(srcs))}
	for _, s := range srcs {
		in.Files = append(in.Files, newFile{ID: s.ID, Name: s.Name, Size: s.Size})
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pluploadproto.PathFiles, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out filesBody
	if err = c.do(req, &out); err != nil {
		return nil, err
	}

	return out.Files, nil
}

// Start и Stop переключают фазу менеджера на сервере.
func (c *Client) Start(ctx context.Context) error {
	return c.post(ctx, pluploadproto.PathStart)
}

func (c *Client) Stop(ctx context.Context) error {
	return c.post(ctx, pluploadproto.PathStop)
}

// Manager возвращает снимок состояния менеджера загрузки.
func (c *Client) Manager(ctx context.Context) (manager.State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pluploadproto.PathManager, nil)
	if err != nil {
		return manager.State{}, err
	}

	var st manager.State
	if err = c.do(req, &st); err != nil {
		return manager.State{}, err
	}

	return st, nil
}

func (c *Client) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// do выполняет запрос и декодирует JSON-ответ в out, если он задан.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// StatusError — ответ сервера с кодом ошибки.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}
