package twitch

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	validateURL = "https://id.twitch.tv/oauth2/validate"
	tokenURL    = "https://id.twitch.tv/oauth2/token"
)

// TokenManager keeps a valid Twitch access token on disk, refreshing
// through the OAuth endpoint when the stored one expires.
type TokenManager struct {
	File         string
	ClientID     string
	ClientSecret string
	// RefreshToken is the environment fallback used when the token
	// file carries none.
	RefreshToken string

	HTTPClient *http.Client
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func NewTokenManager(file, clientID, clientSecret, refreshToken string) *TokenManager {
	return &TokenManager{
		File:         file,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RefreshToken: refreshToken,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// ValidToken returns a working access token, validating the stored one
// first and refreshing if needed.
func (tm *TokenManager) ValidToken() (string, error) {
	tokens := tm.loadTokens()

	if tokens.AccessToken != "" {
		if tm.validate(tokens.AccessToken) {
			log.Println("✅ Existing Access Token is valid.")
			return tokens.AccessToken, nil
		}
		log.Println("⚠️ Access Token expired or invalid. Refreshing...")
	}

	refresh := tokens.RefreshToken
	if refresh == "" {
		refresh = tm.RefreshToken
	}
	if refresh == "" {
		return "", fmt.Errorf("no refresh token in %s or environment", tm.File)
	}

	fresh, err := tm.refresh(refresh)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	tm.saveTokens(fresh)
	log.Println("🔄 Token Refreshed Successfully!")
	return fresh.AccessToken, nil
}

func (tm *TokenManager) validate(accessToken string) bool {
	req, err := http.NewRequest(http.MethodGet, validateURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "OAuth "+accessToken)

	resp, err := tm.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (tm *TokenManager) refresh(refreshToken string) (tokenPair, error) {
	params := url.Values{
		"client_id":     {tm.ClientID},
		"client_secret": {tm.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	resp, err := tm.HTTPClient.PostForm(tokenURL, params)
	if err != nil {
		return tokenPair{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return tokenPair{}, fmt.Errorf("token endpoint returned %s", resp.Status)
	}

	var fresh tokenPair
	if err := json.NewDecoder(resp.Body).Decode(&fresh); err != nil {
		return tokenPair{}, fmt.Errorf("decode token response: %w", err)
	}
	if fresh.AccessToken == "" {
		return tokenPair{}, fmt.Errorf("token endpoint returned no access token")
	}
	return fresh, nil
}

func (tm *TokenManager) loadTokens() tokenPair {
	var tokens tokenPair
	data, err := os.ReadFile(tm.File)
	if err != nil {
		return tokens
	}
	if err := json.Unmarshal(data, &tokens); err != nil {
		log.Printf("parse %s: %v", tm.File, err)
	}
	return tokens
}

func (tm *TokenManager) saveTokens(tokens tokenPair) {
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		log.Printf("encode tokens: %v", err)
		return
	}
	if err := os.WriteFile(tm.File, data, 0o600); err != nil {
		log.Printf("write %s: %v", tm.File, err)
	}
}
