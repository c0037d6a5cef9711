// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Recognized key files: openai-api-key, gemini-api-key, serpapi-api-key, database-url.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/legal-engine/pkg/types"
)

// Recognized secret names.
const (
	OpenAIAPIKey  = "openai-api-key"
	GeminiAPIKey  = "gemini-api-key"
	SerpAPIAPIKey = "serpapi-api-key"
	DatabaseURL   = "database-url"
)

// Warnings receives messages about unreadable secret files.
var Warnings io.Writer = os.Stderr

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(Warnings, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills empty credential fields of cfg from s. Values already set in
// cfg win. The completion key follows the configured provider.
func Apply(cfg *types.Config, s map[string]string) {
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case types.ProviderGemini:
			cfg.LLM.APIKey = s[GeminiAPIKey]
		case types.ProviderOllama:
		default:
			cfg.LLM.APIKey = s[OpenAIAPIKey]
		}
	}
	if cfg.WebSearch.APIKey == "" {
		cfg.WebSearch.APIKey = s[SerpAPIAPIKey]
	}
	if cfg.Vector.DatabaseURL == "" {
		cfg.Vector.DatabaseURL = s[DatabaseURL]
	}
}
