package domain

// Dialog — модальное окно: либо закрыто, либо открыто со снимком связанной сущности.
type Dialog[T any] struct {
	open bool
	ref  T
}

// OpenWith открывает диалог, перезаписывая предыдущий снимок.
func (d *Dialog[T]) OpenWith(v T) {
	d.open = true
	d.ref = v
}

// Close закрывает диалог и сбрасывает снимок.
func (d *Dialog[T]) Close() {
	var zero T
	d.open = false
	d.ref = zero
}

func (d *Dialog[T]) IsOpen() bool {
	return d.open
}

// Current возвращает снимок, если диалог открыт.
func (d *Dialog[T]) Current() (T, bool) {
	return d.ref, d.open
}
