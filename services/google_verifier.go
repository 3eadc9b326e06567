package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// GoogleTokenClaims — поля Google ID-токена, нужные для создания профиля.
type GoogleTokenClaims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// GoogleTokenVerifier проверяет ID-токен федеративного входа.
// Интерфейс позволяет подменять внешний вызов в тестах.
type GoogleTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleTokenClaims, error)
}

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

type googleTokenVerifier struct {
	audience string
	client   *http.Client
}

// NewGoogleTokenVerifier создаёт верификатор, сверяющий aud токена
// с client ID приложения.
func NewGoogleTokenVerifier(audience string) GoogleTokenVerifier {
	return &googleTokenVerifier{
		audience: audience,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *googleTokenVerifier) Verify(ctx context.Context, idToken string) (*GoogleTokenClaims, error) {
	if idToken == "" {
		return nil, errors.New("empty id token")
	}

	endpoint := googleTokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokeninfo rejected token: status %d", resp.StatusCode)
	}

	var payload struct {
		GoogleTokenClaims
		Audience      string `json:"aud"`
		EmailVerified string `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if v.audience != "" && payload.Audience != v.audience {
		return nil, errors.New("token audience mismatch")
	}
	if payload.Email == "" || payload.EmailVerified != "true" {
		return nil, errors.New("token email is missing or unverified")
	}

	return &payload.GoogleTokenClaims, nil
}
