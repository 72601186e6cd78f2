package usecase

import (
	"fmt"
	"testing"

	"github.com/GoArmGo/PhotoPrint/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mb = 1024 * 1024

func candidate(name string, size int64) domain.Candidate {
	return domain.Candidate{Name: name, Size: size, ContentType: "image/jpeg", Content: []byte(name)}
}

func acceptAll(t *testing.T, batch []domain.Candidate, current []domain.Photo, max int) []domain.Photo {
	t.Helper()
	res := Ingest(batch, current, max, domain.NewHandle)
	require.False(t, res.OverLimit)
	return append(current, res.Accepted...)
}

func TestIngest_AcceptsUniqueBatch(t *testing.T) {
	res := Ingest([]domain.Candidate{candidate("a.jpg", 1*mb), candidate("b.jpg", 2*mb)}, nil, 5, domain.NewHandle)

	assert.False(t, res.OverLimit)
	assert.Equal(t, 0, res.Duplicates)
	require.Len(t, res.Accepted, 2)
	require.Len(t, res.Sources, 2)

	a := res.Accepted[0]
	assert.Equal(t, "a.jpg", a.Name)
	assert.Equal(t, "1.00 MB", a.SizeLabel)
	assert.False(t, a.IsExternal)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, a.Handle, a.DisplayURL)
	assert.True(t, a.OwnsHandle())
	assert.Equal(t, "2.00 MB", res.Accepted[1].SizeLabel)
	assert.NotEqual(t, a.ID, res.Accepted[1].ID)
	assert.Equal(t, "b.jpg", res.Sources[1].Name)
}

func TestIngest_ReingestIsDuplicate(t *testing.T) {
	current := acceptAll(t, []domain.Candidate{candidate("a.jpg", 1*mb)}, nil, 5)

	res := Ingest([]domain.Candidate{candidate("a.jpg", 1*mb)}, current, 5, domain.NewHandle)
	assert.Empty(t, res.Accepted)
	assert.Equal(t, 1, res.Duplicates)
	assert.False(t, res.OverLimit)
}

func TestIngest_DuplicateMatchIsCaseInsensitiveAndSizeExact(t *testing.T) {
	current := acceptAll(t, []domain.Candidate{candidate("Beach.JPG", 3*mb)}, nil, 5)

	res := Ingest([]domain.Candidate{
		candidate("beach.jpg", 3*mb),
		candidate("beach.jpg", 3*mb+100*1024),
	}, current, 5, domain.NewHandle)

	assert.Equal(t, 1, res.Duplicates)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, "3.10 MB", res.Accepted[0].SizeLabel)
}

func TestIngest_RenamedPhotoNoLongerMatches(t *testing.T) {
	current := acceptAll(t, []domain.Candidate{candidate("a.jpg", 1*mb)}, nil, 5)
	current[0].Name = "holiday.jpg"

	res := Ingest([]domain.Candidate{candidate("a.jpg", 1*mb)}, current, 5, domain.NewHandle)
	assert.Equal(t, 0, res.Duplicates)
	assert.Len(t, res.Accepted, 1)
}

func TestIngest_OverLimitRejectsWholeBatch(t *testing.T) {
	var batch []domain.Candidate
	for i := 0; i < 5; i++ {
		batch = append(batch, candidate(fmt.Sprintf("p%d.jpg", i), int64(i+1)*mb))
	}
	current := acceptAll(t, batch, nil, 5)
	require.Len(t, current, 5)

	res := Ingest([]domain.Candidate{candidate("extra.jpg", 9*mb)}, current, 5, domain.NewHandle)
	assert.True(t, res.OverLimit)
	assert.Empty(t, res.Accepted)
	assert.Empty(t, res.Sources)
}

func TestIngest_PartialBatchOverLimitRejectsAll(t *testing.T) {
	current := acceptAll(t, []domain.Candidate{candidate("a.jpg", 1*mb), candidate("b.jpg", 2*mb)}, nil, 3)

	res := Ingest([]domain.Candidate{
		candidate("a.jpg", 1*mb),
		candidate("c.jpg", 3*mb),
		candidate("d.jpg", 4*mb),
	}, current, 3, domain.NewHandle)

	assert.True(t, res.OverLimit)
	assert.Equal(t, 1, res.Duplicates, "duplicates are still reported for a rejected batch")
	assert.Empty(t, res.Accepted)
}

func TestIngest_NeverExceedsRemainingRoom(t *testing.T) {
	for max := 0; max <= 6; max++ {
		for existing := 0; existing <= max; existing++ {
			for batchSize := 0; batchSize <= 7; batchSize++ {
				var current []domain.Photo
				for i := 0; i < existing; i++ {
					current = append(current, domain.Photo{ID: domain.NewPhotoID(), Name: fmt.Sprintf("old%d.jpg", i), SizeLabel: "1.00 MB"})
				}
				var batch []domain.Candidate
				for i := 0; i < batchSize; i++ {
					batch = append(batch, candidate(fmt.Sprintf("new%d.jpg", i), mb))
				}

				res := Ingest(batch, current, max, domain.NewHandle)
				assert.LessOrEqual(t, len(res.Accepted), max-len(current),
					"max=%d existing=%d batch=%d", max, existing, batchSize)
			}
		}
	}
}

func TestIngest_EmptyBatch(t *testing.T) {
	res := Ingest(nil, nil, 5, domain.NewHandle)
	assert.False(t, res.OverLimit)
	assert.Equal(t, 0, res.Duplicates)
	assert.NotNil(t, res.Accepted)
	assert.Empty(t, res.Accepted)
}

func TestFilterImages(t *testing.T) {
	in := []domain.Candidate{
		{Name: "a.jpg", ContentType: "image/jpeg"},
		{Name: "notes.txt", ContentType: "text/plain"},
		{Name: "b.png", ContentType: "image/png"},
	}
	out := FilterImages(in)
	require.Len(t, out, 2)
	assert.Equal(t, "a.jpg", out[0].Name)
	assert.Equal(t, "b.png", out[1].Name)
}
