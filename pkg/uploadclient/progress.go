package uploadclient

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	barCells    = 32
	redrawEvery = 120 * time.Millisecond
)

// progressBar печатает в out строку вида "label [####....]  50% 1.0 KB/2.0 KB",
// перерисовывая её через \r. Сам является io.Writer: считает записанные байты.
// Все методы допускают nil-получатель.
type progressBar struct {
	mu     sync.Mutex
	out    io.Writer
	label  string
	total  int64
	sent   int64
	drawn  time.Time
	width  int
	closed bool
}

// newProgressBar возвращает nil, если вывод прогресса выключен.
func newProgressBar(out io.Writer, label string, total int64) *progressBar {
	if out == nil {
		return nil
	}
	return &progressBar{out: out, label: label, total: total}
}

// Start сразу рисует пустую полосу, не дожидаясь первых байт.
func (p *progressBar) Start() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drawLocked("", false)
}

func (p *progressBar) Write(b []byte) (int, error) {
	if p == nil || len(b) == 0 {
		return len(b), nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return len(b), nil
	}
	p.sent += int64(len(b))
	if time.Since(p.drawn) >= redrawEvery {
		p.drawLocked("", false)
	}
	return len(b), nil
}

// Done печатает итоговую строку с "done" или текстом ошибки; повторные вызовы ничего не делают.
func (p *progressBar) Done(err error) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	status := " done"
	if err != nil {
		status = " error: " + err.Error()
	}
	p.drawLocked(status, true)
}

func (p *progressBar) drawLocked(status string, final bool) {
	line := p.label + " " + p.meterLocked() + status
	pad := ""
	if p.width > len(line) {
		pad = strings.Repeat(" ", p.width-len(line))
	}
	p.width = len(line)
	p.drawn = time.Now()

	end := ""
	if final {
		end = "\n"
	}
	fmt.Fprint(p.out, "\r", line, pad, end)
}

func (p *progressBar) meterLocked() string {
	if p.total <= 0 {
		return formatSize(p.sent) + " sent"
	}

	frac := float64(p.sent) / float64(p.total)
	if frac > 1 {
		frac = 1
	}
	cells := int(frac*barCells + 0.5)

	return fmt.Sprintf("[%s%s] %3d%% %s/%s",
		strings.Repeat("#", cells), strings.Repeat(".", barCells-cells),
		int(frac*100+0.5), formatSize(p.sent), formatSize(p.total))
}

// trackedBody закрывает полосу прогресса на EOF, ошибке чтения или Close.
type trackedBody struct {
	io.ReadCloser
	bar *progressBar
}

func trackBody(rc io.ReadCloser, bar *progressBar) io.ReadCloser {
	if bar == nil {
		return rc
	}
	return &trackedBody{ReadCloser: rc, bar: bar}
}

func (t *trackedBody) Read(b []byte) (int, error) {
	n, err := t.ReadCloser.Read(b)
	_, _ = t.bar.Write(b[:n])
	switch {
	case err == io.EOF:
		t.bar.Done(nil)
	case err != nil:
		t.bar.Done(err)
	}
	return n, err
}

func (t *trackedBody) Close() error {
	err := t.ReadCloser.Close()
	t.bar.Done(err)
	return err
}

// formatSize печатает размер в двоичных единицах: 512 B, 1.5 KB, 3.0 MB.
func formatSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n)
	unit := -1
	for v >= 1024 && unit < len("KMGT")-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %cB", v, "KMGT"[unit])
}
