// Package locale provides the localized message catalogs used for fallback
// and progress text when the server supplies none.
package locale

import (
	"embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed catalog/*.toml
var catalogFS embed.FS

// Messages is one language's catalog.
type Messages struct {
	NetworkError    string `toml:"network_error"`
	Thinking        string `toml:"thinking"`
	ErrorProcessing string `toml:"error_processing"`
	NoUnderstanding string `toml:"no_understanding"`
	FallbackNotice  string `toml:"fallback_notice"`
	Processing      string `toml:"processing"`
	Searching       string `toml:"searching"`
	Analyzing       string `toml:"analyzing"`
	Connecting      string `toml:"connecting"`
	ReferralProcess string `toml:"referral_process"`
	Hours           string `toml:"hours"`
	Phone           string `toml:"phone"`
	Address         string `toml:"address"`
	AdditionalInfo  string `toml:"additional_info"`
}

var catalogs = map[string]Messages{}

func init() {
	for lang, file := range map[string]string{
		"english": "catalog/en.toml",
		"spanish": "catalog/es.toml",
		"polish":  "catalog/pl.toml",
	} {
		data, err := catalogFS.ReadFile(file)
		if err != nil {
			panic(fmt.Sprintf("locale: missing catalog %s: %v", file, err))
		}
		var msgs Messages
		if err := toml.Unmarshal(data, &msgs); err != nil {
			panic(fmt.Sprintf("locale: bad catalog %s: %v", file, err))
		}
		catalogs[lang] = msgs
	}
}

// Lookup returns the catalog for a request-language name, defaulting to
// English for unknown or empty values.
func Lookup(language string) Messages {
	if msgs, ok := catalogs[strings.ToLower(strings.TrimSpace(language))]; ok {
		return msgs
	}
	return catalogs["english"]
}

// StagedDefault returns the default progress text for a staged status tag,
// or the generic processing text for tags without a catalog entry.
func (m Messages) StagedDefault(status string) string {
	switch status {
	case "processing":
		return m.Processing
	case "searching":
		return m.Searching
	case "analyzing":
		return m.Analyzing
	case "connecting":
		return m.Connecting
	}
	return m.Processing
}
