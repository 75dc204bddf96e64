// Package manager держит состояние очереди загрузки так, как его видит
// пользовательский интерфейс: строки файлов с прогрессом, доступность кнопок
// старта и остановки, фазу загрузки. Все изменения приходят одним потоком событий.
package manager

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

const defaultBuffer = 64

// Manager применяет события из канала к своему состоянию.
type Manager struct {
	events chan Event
	log    *logrus.Entry

	mu    sync.RWMutex
	state State
	hooks []ItemHook
}

// New создаёт менеджер с буфером событий заданного размера.
func New(buffer int, log *logrus.Entry) *Manager {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Manager{
		events: make(chan Event, buffer),
		log:    log.WithField("component", "upload-manager"),
	}
}

// AddItemHook регистрирует донастройку строк, создаваемых для новых файлов.
func (m *Manager) AddItemHook(hook ItemHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// Dispatch ставит событие в очередь менеджера.
func (m *Manager) Dispatch(ctx context.Context, ev Event) error {
	select {
	case m.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run обрабатывает события до отмены контекста.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case ev := <-m.events:
			m.apply(ev)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) apply(ev Event) {
	m.mu.Lock()
	prev := m.state.Phase
	m.state = Apply(m.state, ev, m.hooks...)
	next := m.state.Phase
	m.mu.Unlock()

	entry := m.log.WithField("event", ev.Kind.String())
	if prev != next {
		entry.Infof("phase %s -> %s", prev, next)
		return
	}
	entry.Debug("event applied")
}

// Snapshot возвращает копию текущего состояния.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}
