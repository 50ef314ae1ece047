package validation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
)

var validate *validator.Validate

var youtubeHosts = []string{
	"youtube.com",
	"www.youtube.com",
	"m.youtube.com",
	"music.youtube.com",
	"youtu.be",
}

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("youtube_url", validateYouTubeURL)
}

// ValidateURL checks that u points at a YouTube watch, short or playlist page.
func ValidateURL(u string) error {
	if err := validate.Var(u, "required,youtube_url"); err != nil {
		return fmt.Errorf("%w: invalid URL %q", errpkg.ErrConfiguration, u)
	}
	return nil
}

// ValidateURLs checks every URL and reports the first invalid one.
func ValidateURLs(urls []string) error {
	for _, u := range urls {
		if err := ValidateURL(u); err != nil {
			return err
		}
	}
	return nil
}

// IsPlaylistURL reports whether the URL carries a playlist id.
func IsPlaylistURL(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return parsed.Query().Get("list") != ""
}

func validateYouTubeURL(fl validator.FieldLevel) bool {
	urlStr := fl.Field().String()

	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	allowed := false
	for _, h := range youtubeHosts {
		if host == h {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}

	q := u.Query()
	switch {
	case host == "youtu.be":
		return strings.Trim(u.Path, "/") != ""
	case q.Get("v") != "" || q.Get("list") != "":
		return true
	case strings.HasPrefix(u.Path, "/shorts/"):
		return len(u.Path) > len("/shorts/")
	}
	return false
}
