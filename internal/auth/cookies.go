package auth

import (
	"net/http"
	"time"
)

const refreshCookieName = "refresh_token"

// CookieConfig holds cookie configuration settings
type CookieConfig struct {
	Domain   string // Empty string = current host only
	Secure   bool   // HTTPS only
	SameSite string // "strict", "lax", or "none"
}

// SetRefreshTokenCookie sets the refresh token in an httpOnly cookie scoped
// to the refresh/logout path so it never rides along on other requests.
func SetRefreshTokenCookie(w http.ResponseWriter, refreshToken string, maxAge time.Duration, config CookieConfig) {
	cookie := &http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/auth",
		Domain:   config.Domain,
		Expires:  time.Now().Add(maxAge),
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true, // never script-readable
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	}
	http.SetCookie(w, cookie)
}

// ClearRefreshTokenCookie clears the refresh token cookie
func ClearRefreshTokenCookie(w http.ResponseWriter, config CookieConfig) {
	cookie := &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/auth",
		Domain:   config.Domain,
		MaxAge:   -1, // Negative MaxAge deletes the cookie
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	}
	http.SetCookie(w, cookie)
}

// GetRefreshTokenCookie retrieves the refresh token from cookies
func GetRefreshTokenCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// parseSameSite converts string to http.SameSite constant
func parseSameSite(sameSite string) http.SameSite {
	switch sameSite {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}
