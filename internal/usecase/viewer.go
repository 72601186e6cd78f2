package usecase

import "github.com/GoArmGo/PhotoPrint/internal/domain"

// Viewer отслеживает фото, открытое в окне просмотра. Открыто не больше одного.
type Viewer struct {
	preview domain.Dialog[domain.Photo]
}

// Open открывает просмотр; уже открытое фото просто заменяется.
func (v *Viewer) Open(p domain.Photo) {
	v.preview.OpenWith(p)
}

func (v *Viewer) Close() {
	v.preview.Close()
}

func (v *Viewer) Current() (domain.Photo, bool) {
	return v.preview.Current()
}
