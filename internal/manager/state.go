package manager

import (
	"fmt"

	"github.com/sir_venger/upload_lite/internal/models"
)

// labelMaxRunes — ширина подписи строки файла.
const labelMaxRunes = 30

// Phase — фаза менеджера: idle → uploading → stopped | complete.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseUploading
	PhaseStopped
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseUploading:
		return "uploading"
	case PhaseStopped:
		return "stopped"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// MarshalText отдаёт фазу строкой в JSON.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for _, c := range []Phase{PhaseIdle, PhaseUploading, PhaseStopped, PhaseComplete} {
		if c.String() == string(b) {
			*p = c
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// Item — строка очереди: один файл и его прогресс.
type Item struct {
	FileID  string `json:"file_id"`
	Name    string `json:"name"`
	Label   string `json:"label"`
	Percent int64  `json:"percent"`
	Style   string `json:"style"`
}

// ItemHook позволяет донастроить строку до добавления в список.
type ItemHook func(item *Item, file models.UploadFile)

// State — явное состояние менеджера. Items хранятся в порядке добавления.
type State struct {
	Phase        Phase  `json:"phase"`
	Items        []Item `json:"items"`
	StartEnabled bool   `json:"start_enabled"`
	StopEnabled  bool   `json:"stop_enabled"`
}

// NewItem строит строку для файла.
func NewItem(file models.UploadFile) Item {
	return Item{
		FileID:  file.ID,
		Name:    file.Name,
		Label:   TrimMiddle(file.Name, labelMaxRunes),
		Percent: 0,
		Style:   fmt.Sprintf("upload-item upload-item-%s", file.ID),
	}
}

// Item возвращает строку по идентификатору файла.
func (s State) Item(fileID string) (Item, bool) {
	if i := s.indexOf(fileID); i >= 0 {
		return s.Items[i], true
	}
	return Item{}, false
}

func (s State) indexOf(fileID string) int {
	for i := range s.Items {
		if s.Items[i].FileID == fileID {
			return i
		}
	}
	return -1
}

// Clone копирует состояние, чтобы не делиться слайсом строк.
func (s State) Clone() State {
	out := s
	out.Items = append([]Item(nil), s.Items...)
	return out
}

// Apply применяет событие к состоянию и возвращает новое; исходное не меняется.
func Apply(s State, ev Event, hooks ...ItemHook) State {
	next := s.Clone()

	switch ev.Kind {
	case FilesAdded:
		for _, f := range ev.Files {
			item := NewItem(f)
			for _, hook := range hooks {
				hook(&item, f)
			}
			if i := next.indexOf(f.ID); i >= 0 {
				next.Items[i] = item
				continue
			}
			next.Items = append(next.Items, item)
		}
		if ev.Queued != QueuedUnknown {
			next.StartEnabled = ev.Queued > 0
		}

	case FilesRemoved:
		for _, f := range ev.Files {
			if i := next.indexOf(f.ID); i >= 0 {
				next.Items = append(next.Items[:i], next.Items[i+1:]...)
			}
		}
		if ev.Queued != QueuedUnknown {
			next.StartEnabled = ev.Queued > 0
		}

	case UploadStarted:
		next.Phase = PhaseUploading
		next.StartEnabled = false
		next.StopEnabled = true

	case UploadStopped:
		next.Phase = PhaseStopped
		next.StartEnabled = true
		next.StopEnabled = false

	case UploadProgress:
		if i := next.indexOf(ev.File.ID); i >= 0 {
			next.Items[i].Percent = ev.File.Percent
		}

	case UploadComplete:
		next.Phase = PhaseComplete
		if ev.Queued == 0 {
			next.StartEnabled = false
		}
		next.StopEnabled = false
	}

	return next
}
