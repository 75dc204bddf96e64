package uploadclient

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	barWidth     = 32
	redrawPeriod = 120 * time.Millisecond
)

// fileProgress рисует ASCII-индикатор загрузки одного файла. Прогресс двигается
// только по чанкам, которые сервер подтвердил.
type fileProgress struct {
	mu sync.Mutex

	out    io.Writer
	label  string
	size   int64
	sent   int64
	acked  int
	chunks int

	drawnAt   time.Time
	drawnLen  int
	completed bool
}

// newFileProgress возвращает nil, если вывод отключён; методы nil-безопасны.
func newFileProgress(out io.Writer, label string, size int64, chunks int) *fileProgress {
	if out == nil {
		return nil
	}

	p := &fileProgress{out: out, label: label, size: size, chunks: chunks}
	p.mu.Lock()
	p.drawLocked("", false)
	p.mu.Unlock()

	return p
}

// Acked учитывает принятый сервером чанк из n байт.
func (p *fileProgress) Acked(n int64) {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.completed {
		return
	}
	p.sent += n
	p.acked++
	if time.Since(p.drawnAt) >= redrawPeriod {
		p.drawLocked("", false)
	}
}

// Done завершает строку: ✓ при успехе, ✗ с текстом ошибки иначе.
func (p *fileProgress) Done(err error) {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.completed {
		return
	}
	p.completed = true

	mark := " ✓"
	if err != nil {
		mark = fmt.Sprintf(" ✗ %v", err)
	}
	p.drawLocked(mark, true)
}

func (p *fileProgress) drawLocked(suffix string, final bool) {
	line := p.line() + suffix

	pad := ""
	if p.drawnLen > len(line) {
		pad = strings.Repeat(" ", p.drawnLen-len(line))
	}
	end := ""
	if final {
		end = "\n"
	}

	fmt.Fprintf(p.out, "\r%s%s%s", line, pad, end)
	p.drawnLen = len(line)
	p.drawnAt = time.Now()
}

func (p *fileProgress) line() string {
	ratio := 1.0
	switch {
	case p.size > 0:
		ratio = float64(p.sent) / float64(p.size)
	case p.chunks > 0:
		ratio = float64(p.acked) / float64(p.chunks)
	}
	ratio = min(ratio, 1)

	filled := int(ratio*barWidth + 0.5)

	return fmt.Sprintf("%s [%s%s] %3d%% %s/%s chunk %d/%d",
		p.label,
		strings.Repeat("=", filled), strings.Repeat(" ", barWidth-filled),
		int(ratio*100+0.5),
		humanBytes(p.sent), humanBytes(p.size),
		p.acked, p.chunks,
	)
}

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}

	value, exp := float64(v), 0
	for value >= unit && exp < 5 {
		value /= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", value, "KMGTP"[exp-1])
}
