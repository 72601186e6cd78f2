package usecase

import "github.com/GoArmGo/PhotoPrint/internal/domain"

// UploadSource — откуда пришла пачка файлов.
type UploadSource string

const (
	SourcePicker UploadSource = "picker"
	SourceDrop   UploadSource = "drop"
)

// IngestResult — итог проверки пачки файлов.
// Accepted[i] создано из кандидата Sources[i].
type IngestResult struct {
	Accepted   []domain.Photo
	Sources    []domain.Candidate
	Duplicates int
	OverLimit  bool
}

// FilterImages оставляет только кандидатов с MIME-типом image/*.
func FilterImages(candidates []domain.Candidate) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.IsImage() {
			out = append(out, c)
		}
	}
	return out
}

// Ingest отсеивает дубликаты уже загруженных фото и проверяет лимит maxCount.
// Если уникальных кандидатов вместе с текущими фото больше лимита, отклоняется вся пачка.
// newHandle выдаёт локальный дескриптор для каждого принятого фото.
func Ingest(candidates []domain.Candidate, current []domain.Photo, maxCount int, newHandle func() string) IngestResult {
	existing := make(map[string]struct{}, len(current))
	for _, p := range current {
		existing[p.DuplicateKey()] = struct{}{}
	}

	unique := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := existing[c.DuplicateKey()]; dup {
			continue
		}
		unique = append(unique, c)
	}

	res := IngestResult{
		Accepted:   []domain.Photo{},
		Sources:    []domain.Candidate{},
		Duplicates: len(candidates) - len(unique),
	}

	if len(unique)+len(current) > maxCount {
		res.OverLimit = true
		return res
	}

	room := maxCount - len(current)
	if room < 0 {
		room = 0
	}
	if len(unique) > room {
		unique = unique[:room]
	}

	for _, c := range unique {
		handle := newHandle()
		res.Accepted = append(res.Accepted, domain.Photo{
			ID:          domain.NewPhotoID(),
			Handle:      handle,
			DisplayURL:  handle,
			Name:        c.Name,
			SizeLabel:   domain.FormatSize(c.Size),
			IsExternal:  false,
			ContentType: c.ContentType,
		})
		res.Sources = append(res.Sources, c)
	}
	return res
}
