package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jakechorley/data-curator/internal/config"
)

const (
	AuthPort       = 3000
	authTimeout    = 5 * time.Minute
	callbackPath   = "/oauth/callback"
	tokenDirName   = ".data-curator/tokens"
	tokenFilePerms = 0600
	tokenDirPerms  = 0700
	tokenInfoURL   = "https://oauth2.googleapis.com/tokeninfo"
)

// ScopeSheetsReadonly is the only scope the curator asks for
const ScopeSheetsReadonly = "https://www.googleapis.com/auth/spreadsheets.readonly"

func requiredScopes() []string {
	return []string{ScopeSheetsReadonly}
}

// GetOAuthConfig creates an OAuth2 config from the OAuth client configuration
func GetOAuthConfig(oauthCfg *config.OAuthClientConfig) (*oauth2.Config, error) {
	oauthConfigJSON, err := json.Marshal(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal oauth config: %w", err)
	}

	googleConfig, err := google.ConfigFromJSON(oauthConfigJSON, requiredScopes()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google config: %w", err)
	}

	googleConfig.RedirectURL = fmt.Sprintf("http://localhost:%d%s", AuthPort, callbackPath)

	return googleConfig, nil
}

// TokenSource hands out a token for one environment, running the browser
// flow at most once at a time. Tokens are cached in memory and on disk under
// the home directory, and refreshed when expired.
type TokenSource struct {
	oauthConfig *oauth2.Config
	env         string
	logger      *zap.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// NewTokenSource creates a TokenSource for the given environment
func NewTokenSource(oauthConfig *oauth2.Config, env string, logger *zap.Logger) *TokenSource {
	return &TokenSource{oauthConfig: oauthConfig, env: env, logger: logger}
}

// Token returns a valid token, prompting the user to authorize if nothing usable is cached
func (s *TokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != nil && s.token.Valid() {
		return s.token, nil
	}

	if token := s.cachedToken(ctx); token != nil {
		s.token = token
		return token, nil
	}

	s.logger.Info("No valid token found, starting OAuth flow")

	authURL := s.oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOffline)
	fmt.Printf("\nVisit this URL to authorize read access to your spreadsheet:\n%s\n\n", authURL)

	code, err := listenForAuthCallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if err := validateTokenScopes(ctx, token); err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if err := saveToken(s.env, token); err != nil {
		s.logger.Warn("Failed to save token", zap.Error(err))
	}

	s.token = token
	return token, nil
}

// cachedToken returns the on-disk token when it is valid or refreshable and carries the
// required scopes. Unusable tokens are deleted.
func (s *TokenSource) cachedToken(ctx context.Context) *oauth2.Token {
	fileToken, err := loadToken(s.env)
	if err != nil {
		s.logger.Warn("Failed to load token from file", zap.Error(err))
		return nil
	}
	if fileToken == nil {
		return nil
	}

	token := fileToken
	if !token.Valid() {
		if token.RefreshToken == "" {
			return nil
		}
		refreshed, err := s.oauthConfig.TokenSource(ctx, token).Token()
		if err != nil {
			s.logger.Warn("Failed to refresh token", zap.Error(err))
			return nil
		}
		token = refreshed
	}

	if err := validateTokenScopes(ctx, token); err != nil {
		s.logger.Warn("Cached token is missing required scopes, deleting it", zap.Error(err))
		if err := deleteToken(s.env); err != nil {
			s.logger.Warn("Failed to delete token", zap.Error(err))
		}
		return nil
	}

	if token != fileToken {
		s.logger.Debug("Token refreshed")
		if err := saveToken(s.env, token); err != nil {
			s.logger.Warn("Failed to save refreshed token", zap.Error(err))
		}
	}
	return token
}

// validateTokenScopes checks the token's granted scopes with Google's tokeninfo endpoint
func validateTokenScopes(ctx context.Context, token *oauth2.Token) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenInfoURL+"?access_token="+token.AccessToken, nil)
	if err != nil {
		return fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call tokeninfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("tokeninfo request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenInfo struct {
		Scope string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	return missingScopes(strings.Fields(tokenInfo.Scope))
}

func missingScopes(granted []string) error {
	var missing []string
	for _, required := range requiredScopes() {
		if !slices.Contains(granted, required) {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("token is missing required scopes: %v", missing)
	}
	return nil
}

// listenForAuthCallback serves the redirect URL until a code arrives, the
// user gives up or the context ends
func listenForAuthCallback(ctx context.Context) (string, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			select {
			case errChan <- errors.New("no authorization code received"):
			default:
			}
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Authorization successful</h1><p>You can close this window.</p></body></html>`)

		select {
		case codeChan <- code:
		default:
		}
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", AuthPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- fmt.Errorf("server error: %w", err):
			default:
			}
		}
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	var code string
	var authErr error

	select {
	case code = <-codeChan:
	case authErr = <-errChan:
	case <-timeoutCtx.Done():
		authErr = fmt.Errorf("authorization timeout after %v", authTimeout)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	if authErr != nil {
		return "", authErr
	}
	return code, nil
}

// tokenPath returns the token file for the given environment
func tokenPath(env string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, tokenDirName, fmt.Sprintf("token-%s.json", env)), nil
}

// loadToken returns nil without error when no token has been saved yet
func loadToken(env string) (*oauth2.Token, error) {
	path, err := tokenPath(env)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}

func saveToken(env string, token *oauth2.Token) error {
	path, err := tokenPath(env)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), tokenDirPerms); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(path, data, tokenFilePerms); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func deleteToken(env string) error {
	path, err := tokenPath(env)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}
