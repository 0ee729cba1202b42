package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joejoinerr/CrawlnChat/internal/errortypes"
)

// DefaultWebsitesPaths are tried in order when no websites file is specified.
var DefaultWebsitesPaths = []string{
	"websites.json",
	"websites.yaml",
	"websites.yml",
	"config/websites.json",
	"config/websites.yaml",
	"config/websites.yml",
}

// WebsiteConfig defines one website to crawl and index.
type WebsiteConfig struct {
	// Name identifies the website and becomes its storage namespace.
	Name string `json:"name" yaml:"name"`

	// XMLSitemap is the URL of the website's XML sitemap.
	XMLSitemap string `json:"xml_sitemap" yaml:"xml_sitemap"`

	// Description summarizes the site's content for answer routing.
	Description string `json:"description" yaml:"description"`

	// FreshnessDays is how long crawled content stays fresh before a
	// scheduled recrawl. Defaults to 7.
	FreshnessDays int `json:"freshness_days" yaml:"freshness_days"`

	// ExcludePatterns lists URL substrings to skip while crawling.
	ExcludePatterns []string `json:"exclude_patterns" yaml:"exclude_patterns"`

	// IncludeOnlyPatterns, when non-empty, restricts crawling to URLs
	// containing at least one of the patterns.
	IncludeOnlyPatterns []string `json:"include_only_patterns" yaml:"include_only_patterns"`
}

// Namespace derives the storage namespace for the website.
func (w WebsiteConfig) Namespace() string {
	ns := strings.ToLower(strings.TrimSpace(w.Name))
	return strings.ReplaceAll(ns, " ", "_")
}

// Validate checks required fields and applies defaults.
func (w *WebsiteConfig) Validate() error {
	if w.Name == "" {
		return errortypes.ValidationError(nil, "website name is required")
	}
	if w.XMLSitemap == "" {
		return errortypes.ValidationError(nil, fmt.Sprintf("website %s has no xml_sitemap", w.Name))
	}
	if w.FreshnessDays <= 0 {
		w.FreshnessDays = 7
	}
	return nil
}

// websitesFile is the top-level shape of a websites definition file.
type websitesFile struct {
	Websites []WebsiteConfig `json:"websites" yaml:"websites"`
}

// LoadWebsiteConfigs reads website definitions from a JSON or YAML file.
// When path is empty, the default locations are tried in order and a missing
// file yields an empty list rather than an error.
func LoadWebsiteConfigs(path string) ([]WebsiteConfig, error) {
	if path == "" {
		for _, candidate := range DefaultWebsitesPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return []WebsiteConfig{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errortypes.ConfigError(err, fmt.Sprintf("failed to read websites file %s", path))
	}

	var file websitesFile
	switch {
	case strings.HasSuffix(path, ".json"):
		err = json.Unmarshal(data, &file)
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		err = yaml.Unmarshal(data, &file)
	default:
		return nil, errortypes.ConfigError(nil, fmt.Sprintf("unsupported websites file format: %s", path))
	}
	if err != nil {
		return nil, errortypes.ConfigError(err, fmt.Sprintf("failed to parse websites file %s", path))
	}

	for i := range file.Websites {
		if err := file.Websites[i].Validate(); err != nil {
			return nil, err
		}
	}

	return file.Websites, nil
}
