package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/yourusername/forum-autosign/internal/logger"
)

const sessionFile = "./sessions/cookies.json"

// SaveSession persists the current browser cookies to disk
func SaveSession(page *rod.Page) error {
	cookies, err := page.Cookies(nil)
	if err != nil {
		return fmt.Errorf("failed to read cookies: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(sessionFile), 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cookies: %w", err)
	}
	if err := os.WriteFile(sessionFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	logger.Debug("session cookies saved", "count", len(cookies))
	return nil
}

// LoadSession restores previously saved cookies into the browser. A missing
// session file is reported as an error so callers fall through to a fresh
// sign-in.
func LoadSession(page *rod.Page) error {
	data, err := os.ReadFile(sessionFile)
	if err != nil {
		return fmt.Errorf("no saved session: %w", err)
	}

	var cookies []*proto.NetworkCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}

	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: c.SameSite,
		})
	}

	if err := page.SetCookies(params); err != nil {
		return fmt.Errorf("failed to restore cookies: %w", err)
	}

	logger.Debug("session cookies restored", "count", len(params))
	return nil
}

// ClearSession deletes the saved session file
func ClearSession() error {
	if err := os.Remove(sessionFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
