package uploadhttp

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sirupsen/logrus"

	"github.com/sir_venger/upload_lite/internal/chunk"
	"github.com/sir_venger/upload_lite/internal/config"
	"github.com/sir_venger/upload_lite/internal/manager"
	meta "github.com/sir_venger/upload_lite/internal/repo"
	"github.com/sir_venger/upload_lite/internal/usecase/uploadsvc"
	"github.com/sir_venger/upload_lite/pkg/pluploadproto"
)

const gcLockName = ".gc.lock"

// Server обслуживает HTTP API загрузок поверх локального каталога.
type Server struct {
	Uploads *uploadsvc.Uploads
	Manager *manager.Manager
	Cfg     *config.Config

	fs        billy.Filesystem
	uploadDir string
	log       *logrus.Entry
	cancel    context.CancelFunc
	stopGC    func()
	closeMeta func()
}

// NewServer собирает зависимости из конфигурации, запускает менеджер и фоновый GC.
func NewServer(ctx context.Context, cfg *config.Config, log *logrus.Entry) (http.Handler, *Server, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	uploadDir, err := filepath.Abs(cfg.Upload.Dir)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Upload.CreateDir {
		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			return nil, nil, err
		}
	}

	policy, ok := chunk.ParseExistingPolicy(cfg.Upload.OnExisting)
	if !ok {
		return nil, nil, fmt.Errorf("unknown upload.on_existing value %q", cfg.Upload.OnExisting)
	}

	store, closeMeta, err := meta.Open(ctx, cfg.MetaDSN)
	if err != nil {
		return nil, nil, err
	}

	fs := osfs.New("/")
	factory := chunk.NewFileAppendingHandlerFactory(fs, uploadDir,
		chunk.WithExistingPolicy(policy),
		chunk.WithOrderCheck(cfg.Upload.StrictOrder),
	)

	runCtx, cancel := context.WithCancel(ctx)
	mgr := manager.New(0, log)
	go mgr.Run(runCtx)

	uploads := uploadsvc.New(uploadsvc.Deps{
		MetaStorage:  store,
		Handlers:     chunk.NewRegistry(factory),
		Events:       mgr,
		FS:           fs,
		Destinations: factory,
		GCLockPath:   filepath.Join(uploadDir, gcLockName),
		Log:          log.WithField("component", "uploads"),
	})

	srv := &Server{
		Uploads:   uploads,
		Manager:   mgr,
		Cfg:       cfg,
		fs:        fs,
		uploadDir: uploadDir,
		log:       log.WithField("component", "uploadhttp"),
		cancel:    cancel,
		closeMeta: closeMeta,
	}
	srv.stopGC = uploads.StartGC(runCtx, srv.gcTTL(), time.Duration(cfg.GC.IntervalMin)*time.Minute)

	log.WithField("dir", uploadDir).
		WithField("on_existing", policy.String()).
		WithField("strict_order", cfg.Upload.StrictOrder).
		Info("upload server configured")

	return srv.routes(), srv, nil
}

// Close останавливает GC и менеджер, закрывает хранилище метаданных.
func (s *Server) Close() {
	s.stopGC()
	s.cancel()
	s.closeMeta()
}

func (s *Server) gcTTL() time.Duration {
	return time.Duration(s.Cfg.GC.TTLHours) * time.Hour
}

// routes регистрирует обработчики чанков, очереди, менеджера, здоровья и GC.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Post(pluploadproto.PathUpload, s.postChunk)
	r.Post(pluploadproto.PathStart, s.startUpload)
	r.Post(pluploadproto.PathStop, s.stopUpload)

	r.Route(pluploadproto.PathFiles, func(fr chi.Router) {
		fr.Get("/", s.listFiles)
		fr.Post("/", s.addFiles)
		fr.Delete("/{id}", s.deleteFile)
	})

	r.Get(pluploadproto.PathManager, s.managerState)
	r.Get(pluploadproto.PathHealth, s.health)
	r.Post(pluploadproto.PathGC, s.gcOnce)
	r.Get("/admin/config", func(w http.ResponseWriter, r *http.Request) { render.JSON(w, r, s.Cfg.Redacted()) })

	return r
}
