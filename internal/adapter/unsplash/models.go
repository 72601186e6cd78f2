package unsplash

// UnsplashPhotoURLs — ссылки на варианты одного фото разного качества
type UnsplashPhotoURLs struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
	Thumb   string `json:"thumb"`
}

type UnsplashUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// UnsplashPhotoResponse — ответ GET /photos/{id}, только используемые поля
type UnsplashPhotoResponse struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`

	URLs UnsplashPhotoURLs `json:"urls"`
	User UnsplashUser      `json:"user"`
}

// тело ответа Unsplash при ошибке
type UnsplashErrorResponse struct {
	Errors []string `json:"errors"`
}
