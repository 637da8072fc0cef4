package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/coursebuddy/coursebuddy/config"
)

// AuthHandler implements the Canvas OAuth2 web flow. The callback trades
// the code for a Canvas token and issues a session JWT cookie.
type AuthHandler struct {
	Canvas config.CanvasConfig
	Secret []byte
	HTTP   *http.Client
}

func (a *AuthHandler) Register(g *echo.Group) {
	g.GET("/canvas/login", a.login)
	g.GET("/canvas/callback", a.callback)
	g.POST("/logout", a.logout)
}

func (a *AuthHandler) login(c echo.Context) error {
	if a.Canvas.ClientID == "" || a.Canvas.RedirectURI == "" {
		return echo.NewHTTPError(http.StatusInternalServerError, "canvas oauth not configured (canvas.client_id/redirect_uri)")
	}
	q := url.Values{}
	q.Set("client_id", a.Canvas.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", a.Canvas.RedirectURI)
	return c.Redirect(http.StatusFound, strings.TrimSuffix(a.Canvas.BaseURL, "/")+"/login/oauth2/auth?"+q.Encode())
}

func (a *AuthHandler) callback(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing code")
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", a.Canvas.ClientID)
	form.Set("client_secret", a.Canvas.ClientSecret)
	form.Set("redirect_uri", a.Canvas.RedirectURI)
	form.Set("code", code)

	tokenURL := strings.TrimSuffix(a.Canvas.BaseURL, "/") + "/login/oauth2/token"
	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := a.httpClient().Do(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("canvas token exchange: %v", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return echo.NewHTTPError(http.StatusUnauthorized, "canvas rejected the authorization code")
	}
	var tok struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("decode token response: %v", err))
	}

	signed, err := SignJWT(fmt.Sprintf("%d", tok.User.ID), a.Secret, 24*time.Hour)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	cookie := new(http.Cookie)
	cookie.Name = "auth"
	cookie.Value = signed
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteLaxMode
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, map[string]string{"token": signed, "user": tok.User.Name})
}

func (a *AuthHandler) logout(c echo.Context) error {
	cookie := new(http.Cookie)
	cookie.Name = "auth"
	cookie.Value = ""
	cookie.Path = "/"
	cookie.MaxAge = -1
	c.SetCookie(cookie)
	return c.NoContent(http.StatusOK)
}

func (a *AuthHandler) httpClient() *http.Client {
	if a.HTTP != nil {
		return a.HTTP
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// SignJWT issues a signed token with the provided subject and TTL.
func SignJWT(subject string, secret []byte, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// withAuth validates the session JWT from the Authorization header or the
// auth cookie and stashes the subject on the echo context.
func withAuth(next echo.HandlerFunc, secret []byte) echo.HandlerFunc {
	return func(c echo.Context) error {
		tok := extractToken(c)
		if tok == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
		}
		parsed, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) { return secret, nil })
		if err != nil || !parsed.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		if claims, ok := parsed.Claims.(jwt.MapClaims); ok {
			if sub, ok := claims["sub"].(string); ok {
				c.Set("user_id", sub)
				return next(c)
			}
		}
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
}

func extractToken(c echo.Context) string {
	if h := c.Request().Header.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
		return h[7:]
	}
	if ck, err := c.Cookie("auth"); err == nil {
		return ck.Value
	}
	return ""
}
