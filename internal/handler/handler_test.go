package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/GoArmGo/PhotoPrint/internal/adapter/storage/memory"
	"github.com/GoArmGo/PhotoPrint/internal/core/ports"
	"github.com/GoArmGo/PhotoPrint/internal/domain"
	"github.com/GoArmGo/PhotoPrint/internal/logger"
	"github.com/GoArmGo/PhotoPrint/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jpegBytes = append([]byte{0xff, 0xd8, 0xff, 0xe0}, bytes.Repeat([]byte{0x01}, 64)...)
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x02}, 64)...)
)

type stubFetcher struct{}

func (stubFetcher) FetchPhotoByIDFromExternal(_ context.Context, id string) (*domain.Photo, error) {
	if id != "abc" {
		return nil, domain.ErrPhotoNotFound
	}
	return &domain.Photo{ID: domain.NewPhotoID(), DisplayURL: "https://images.example.com/abc.jpg", Name: "abc", IsExternal: true}, nil
}

type testAPI struct {
	t      *testing.T
	router chi.Router
	blobs  *memory.Store
}

func newTestAPI(t *testing.T, fetcher usecase.PhotoFetcher) *testAPI {
	t.Helper()
	blobs := memory.NewStore(logger.Discard())
	return newTestAPIWithBackend(t, fetcher, blobs, blobs)
}

// newTestAPIWithBackend собирает API поверх backend; blobs позволяет проверять содержимое хранилища.
func newTestAPIWithBackend(t *testing.T, fetcher usecase.PhotoFetcher, blobs *memory.Store, backend ports.BlobStore) *testAPI {
	t.Helper()
	log := logger.Discard()
	uc := usecase.NewSessionUseCase(usecase.SessionDeps{
		Catalog:   domain.DefaultCatalog("AED"),
		Blobs:     backend,
		MaxPhotos: 5,
		Logger:    log,
	}, fetcher, nil)

	r := chi.NewRouter()
	r.Use(RequestLogger(log))
	NewPrintHandler(uc, 1<<20, log).RegisterRoutes(r)
	return &testAPI{t: t, router: r, blobs: blobs}
}

func (a *testAPI) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) doJSON(method, path string, payload interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(a.t, err)
		body = bytes.NewReader(raw)
	}
	return a.do(method, path, body, "application/json")
}

func (a *testAPI) createSession() string {
	a.t.Helper()
	rec := a.doJSON(http.MethodPost, "/sessions", nil)
	require.Equal(a.t, http.StatusCreated, rec.Code)
	var view usecase.SessionView
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotEmpty(a.t, view.ID)
	return view.ID
}

type upload struct {
	name        string
	contentType string
	data        []byte
}

func (a *testAPI) upload(sessionID, source string, files ...upload) (*httptest.ResponseRecorder, result) {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if source != "" {
		require.NoError(a.t, mw.WriteField("source", source))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		if f.contentType != "" {
			h.Set("Content-Type", f.contentType)
		}
		part, err := mw.CreatePart(h)
		require.NoError(a.t, err)
		_, err = part.Write(f.data)
		require.NoError(a.t, err)
	}
	require.NoError(a.t, mw.Close())

	rec := a.do(http.MethodPost, "/sessions/"+sessionID+"/photos", &buf, mw.FormDataContentType())
	var res result
	if rec.Code == http.StatusOK {
		res = decodeResult(a.t, rec)
	}
	return rec, res
}

// result повторяет usecase.Result, но с черновиком в виде сырого JSON.
type result struct {
	Session struct {
		ID         string            `json:"id"`
		Photos     []domain.Photo    `json:"photos"`
		Selections map[string]string `json:"selections"`
		Draft      struct {
			Total string `json:"total"`
		} `json:"draft"`
		OrderState   string          `json:"order_state"`
		Confirmation json.RawMessage `json:"confirmation"`
		Preview      *domain.Photo   `json:"preview"`
	} `json:"session"`
	Notices []domain.Notice `json:"notices"`
	Changed bool            `json:"changed"`
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) result {
	t.Helper()
	var res result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func TestCatalog(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.doJSON(http.MethodGet, "/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Currency string `json:"currency"`
		Sizes    []struct {
			ID    string `json:"id"`
			Price string `json:"price"`
		} `json:"sizes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "AED", body.Currency)
	require.Len(t, body.Sizes, 3)
	assert.Equal(t, "4x6", body.Sizes[0].ID)
	assert.Equal(t, "1.5", body.Sizes[0].Price)
}

func TestOrderScenario(t *testing.T) {
	api := newTestAPI(t, nil)
	sid := api.createSession()

	rec, res := api.upload(sid, "picker",
		upload{name: "a.jpg", contentType: "image/jpeg", data: jpegBytes},
		upload{name: "b.png", data: pngBytes},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, res.Changed)
	require.Len(t, res.Session.Photos, 2)
	assert.Equal(t, "image/png", res.Session.Photos[1].ContentType, "content type detected from bytes")
	assert.Equal(t, 2, api.blobs.Len())

	photoA := res.Session.Photos[0].ID
	rec = api.doJSON(http.MethodPut, "/sessions/"+sid+"/photos/"+photoA+"/size", map[string]string{"size_id": "4x6"})
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeResult(t, rec)
	assert.Equal(t, "4x6", res.Session.Selections[photoA])
	assert.Equal(t, "1.5", res.Session.Draft.Total)

	rec = api.doJSON(http.MethodGet, "/sessions/"+sid+"/order", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"order_state":"idle"`)

	rec = api.doJSON(http.MethodPost, "/sessions/"+sid+"/order/payment", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeResult(t, rec)
	assert.Equal(t, "awaiting_confirmation", res.Session.OrderState)
	assert.NotEmpty(t, res.Session.Confirmation)

	rec = api.doJSON(http.MethodPost, "/sessions/"+sid+"/order/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeResult(t, rec)
	assert.Empty(t, res.Session.Photos)
	assert.Empty(t, res.Session.Selections)
	assert.Equal(t, "idle", res.Session.OrderState)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, "Order Confirmed.", res.Notices[0].Message)
	assert.Equal(t, 0, api.blobs.Len())
}

func TestUploadOverLimitReturnsNotice(t *testing.T) {
	api := newTestAPI(t, nil)
	sid := api.createSession()

	var files []upload
	for _, name := range []string{"1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg", "6.jpg"} {
		files = append(files, upload{name: name, contentType: "image/jpeg", data: jpegBytes})
	}
	rec, res := api.upload(sid, "picker", files...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, res.Changed)
	assert.Empty(t, res.Session.Photos)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, "You can only upload up to 5 photos", res.Notices[0].Message)
}

func TestUploadDropIgnoresNonImages(t *testing.T) {
	api := newTestAPI(t, nil)
	sid := api.createSession()

	rec, res := api.upload(sid, "drop",
		upload{name: "notes.txt", contentType: "text/plain", data: []byte("hello")},
	)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, res.Changed)
	assert.Empty(t, res.Session.Photos)

	rec, _ = api.upload(sid, "clipboard", upload{name: "a.jpg", data: jpegBytes})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRenameRemoveAndPreview(t *testing.T) {
	api := newTestAPI(t, nil)
	sid := api.createSession()
	_, res := api.upload(sid, "", upload{name: "a.jpg", contentType: "image/jpeg", data: jpegBytes})
	photoID := res.Session.Photos[0].ID

	rec := api.doJSON(http.MethodPost, "/sessions/"+sid+"/preview/"+photoID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, decodeResult(t, rec).Session.Preview)

	rec = api.doJSON(http.MethodPatch, "/sessions/"+sid+"/photos/"+photoID, map[string]string{"name": "  beach.jpg "})
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeResult(t, rec)
	assert.Equal(t, "beach.jpg", res.Session.Photos[0].Name)
	assert.Equal(t, "beach.jpg", res.Session.Preview.Name)

	rec = api.doJSON(http.MethodPatch, "/sessions/"+sid+"/photos/"+photoID, map[string]string{"name": "   "})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeResult(t, rec).Changed)

	rec = api.doJSON(http.MethodDelete, "/sessions/"+sid+"/photos/"+photoID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeResult(t, rec)
	assert.True(t, res.Changed)
	assert.Nil(t, res.Session.Preview)
	assert.Equal(t, 0, api.blobs.Len())

	rec = api.doJSON(http.MethodDelete, "/sessions/"+sid+"/photos/"+photoID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeResult(t, rec).Changed)
}

func TestErrorStatuses(t *testing.T) {
	api := newTestAPI(t, nil)
	sid := api.createSession()
	_, res := api.upload(sid, "picker", upload{name: "a.jpg", contentType: "image/jpeg", data: jpegBytes})
	photoID := res.Session.Photos[0].ID

	rec := api.doJSON(http.MethodGet, "/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.doJSON(http.MethodPut, "/sessions/"+sid+"/photos/"+photoID+"/size", map[string]string{"size_id": "a0"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.doJSON(http.MethodPost, "/sessions/"+sid+"/photos/external", map[string]string{"unsplash_id": "abc"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = api.doJSON(http.MethodPost, "/sessions/"+sid+"/photos/external", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPut, "/sessions/"+sid+"/photos/"+photoID+"/size", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.doJSON(http.MethodGet, "/sessions/"+sid+"/photos/ghost/content", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.doJSON(http.MethodPost, "/sessions/"+sid+"/order/payment", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeResult(t, rec)
	assert.False(t, res.Changed)
	assert.Equal(t, "Please select sizes for at least one photo", res.Notices[0].Message)
}

func TestPhotoContent(t *testing.T) {
	api := newTestAPI(t, stubFetcher{})
	sid := api.createSession()
	_, res := api.upload(sid, "picker", upload{name: "a.jpg", contentType: "image/jpeg", data: jpegBytes})
	local := res.Session.Photos[0].ID

	rec := api.doJSON(http.MethodGet, "/sessions/"+sid+"/photos/"+local+"/content", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, jpegBytes, rec.Body.Bytes())

	rec = api.doJSON(http.MethodPost, "/sessions/"+sid+"/photos/external", map[string]string{"unsplash_id": "abc"})
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeResult(t, rec)
	require.Len(t, res.Session.Photos, 2)
	external := res.Session.Photos[1].ID

	rec = api.doJSON(http.MethodGet, "/sessions/"+sid+"/photos/"+external+"/content", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://images.example.com/abc.jpg", rec.Header().Get("Location"))

	rec = api.doJSON(http.MethodPost, "/sessions/"+sid+"/photos/external", map[string]string{"unsplash_id": "zzz"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPhotoContentPlaceholderWhenBlobMissing(t *testing.T) {
	api := newTestAPI(t, nil)
	sid := api.createSession()
	_, res := api.upload(sid, "picker", upload{name: "a.jpg", contentType: "image/jpeg", data: jpegBytes})
	photo := res.Session.Photos[0]

	// handle совпадает с DisplayURL у локальных фото
	require.NoError(t, api.blobs.Release(context.Background(), photo.DisplayURL))

	rec := api.doJSON(http.MethodGet, "/sessions/"+sid+"/photos/"+photo.ID+"/content", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestDeleteSession(t *testing.T) {
	api := newTestAPI(t, nil)
	sid := api.createSession()
	_, _ = api.upload(sid, "picker", upload{name: "a.jpg", contentType: "image/jpeg", data: jpegBytes})
	require.Equal(t, 1, api.blobs.Len())

	rec := api.doJSON(http.MethodDelete, "/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, api.blobs.Len())

	rec = api.doJSON(http.MethodDelete, "/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type brokenBlobs struct {
	*memory.Store
}

func (brokenBlobs) Put(context.Context, string, io.Reader, int64, string) error {
	return errors.New("bucket unavailable")
}

func TestUploadStagingFailureReturnsNotice(t *testing.T) {
	mem := memory.NewStore(logger.Discard())
	api := newTestAPIWithBackend(t, nil, mem, brokenBlobs{Store: mem})
	sid := api.createSession()

	rec, res := api.upload(sid, "picker", upload{name: "a.jpg", contentType: "image/jpeg", data: jpegBytes})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, res.Changed)
	assert.Empty(t, res.Session.Photos)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, domain.NoticeError, res.Notices[0].Kind)
	assert.Equal(t, "Upload failed, please try again", res.Notices[0].Message)
	assert.Equal(t, 0, mem.Len())
}

func TestReplacePhotos(t *testing.T) {
	api := newTestAPI(t, nil)
	sid := api.createSession()
	_, res := api.upload(sid, "picker",
		upload{name: "a.jpg", contentType: "image/jpeg", data: jpegBytes},
		upload{name: "b.png", contentType: "image/png", data: pngBytes},
	)
	require.Len(t, res.Session.Photos, 2)
	a, b := res.Session.Photos[0].ID, res.Session.Photos[1].ID

	rec := api.doJSON(http.MethodPut, "/sessions/"+sid+"/photos", map[string][]string{"photo_ids": {b}})
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeResult(t, rec)
	assert.True(t, res.Changed)
	require.Len(t, res.Session.Photos, 1)
	assert.Equal(t, b, res.Session.Photos[0].ID)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, "Photo removed", res.Notices[0].Message)
	assert.Equal(t, 1, api.blobs.Len())

	rec = api.doJSON(http.MethodPut, "/sessions/"+sid+"/photos", map[string][]string{"photo_ids": {a, b}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeResult(t, rec).Changed, "removed photo cannot come back")

	rec = api.doJSON(http.MethodPut, "/sessions/"+sid+"/photos", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmAfterSelectedPhotoRemoved(t *testing.T) {
	api := newTestAPI(t, nil)
	sid := api.createSession()
	_, res := api.upload(sid, "picker", upload{name: "a.jpg", contentType: "image/jpeg", data: jpegBytes})
	photoID := res.Session.Photos[0].ID

	rec := api.doJSON(http.MethodPut, "/sessions/"+sid+"/photos/"+photoID+"/size", map[string]string{"size_id": "8x10"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.doJSON(http.MethodPost, "/sessions/"+sid+"/order/payment", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "awaiting_confirmation", decodeResult(t, rec).Session.OrderState)

	rec = api.doJSON(http.MethodDelete, "/sessions/"+sid+"/photos/"+photoID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeResult(t, rec)
	assert.Equal(t, "idle", res.Session.OrderState)
	assert.Empty(t, res.Session.Confirmation)

	rec = api.doJSON(http.MethodPost, "/sessions/"+sid+"/order/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeResult(t, rec)
	assert.False(t, res.Changed)
	for _, n := range res.Notices {
		assert.NotEqual(t, domain.TopicOrderConfirmed, n.Topic)
	}
}
