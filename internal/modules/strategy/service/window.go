package service

// PatternLength - длина паттерна в символах.
const PatternLength = 7

// PatternKey - последовательность символов окна, от старого к новому.
type PatternKey string

// Window - скользящий буфер символов фиксированной длины.
type Window struct {
	size int
	buf  []Symbol
}

func NewWindow(size int) *Window {
	if size <= 0 {
		size = PatternLength
	}
	return &Window{
		size: size,
		buf:  make([]Symbol, 0, size),
	}
}

// Push добавляет символ, выталкивая самый старый при переполнении.
// ok==true на каждом пуше, после которого окно заполнено.
func (w *Window) Push(s Symbol) (PatternKey, bool) {
	if len(w.buf) == w.size {
		copy(w.buf, w.buf[1:])
		w.buf = w.buf[:w.size-1]
	}
	w.buf = append(w.buf, s)
	return w.Current()
}

// Current - уже сложившийся паттерн, без изменения окна.
func (w *Window) Current() (PatternKey, bool) {
	if len(w.buf) < w.size {
		return "", false
	}
	return PatternKey(w.buf), true
}

func (w *Window) Len() int  { return len(w.buf) }
func (w *Window) Size() int { return w.size }
func (w *Window) Full() bool {
	return len(w.buf) == w.size
}
