package config

import (
	"net/url"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation"
)

// Validate checks the configuration and reports every problem at once.
func Validate(cfg *Config) error {
	return validators.Validate(cfg).ToError()
}

var validators = foundation.NewValidatorChain(
	foundation.Check("site.recent_posts", "range", "must not be negative", func(c *Config) bool {
		return c.Site.RecentPosts >= 0
	}),
	foundation.Check("site.timezone_offset_hours", "range", "must be between -12 and 14", func(c *Config) bool {
		return c.Site.TimezoneOffsetHours >= -12 && c.Site.TimezoneOffsetHours <= 14
	}),
	foundation.Check("paths.source_dir", "required", "must not be empty", func(c *Config) bool {
		return strings.TrimSpace(c.Paths.SourceDir) != ""
	}),
	foundation.Check("paths.output_dir", "required", "must not be empty", func(c *Config) bool {
		return strings.TrimSpace(c.Paths.OutputDir) != ""
	}),
	foundation.Check("paths.posts_dir", "relative", "must be a relative path inside the output directory", func(c *Config) bool {
		return isInsideRelative(c.Paths.PostsDir)
	}),
	foundation.Check("paths.css_file", "relative", "must be a relative path inside the output directory", func(c *Config) bool {
		return c.Paths.CSSFile == "" || isInsideRelative(c.Paths.CSSFile)
	}),
	pageName("paths.index_file", func(c *Config) string { return c.Paths.IndexFile }),
	pageName("paths.posts_page", func(c *Config) string { return c.Paths.PostsPage }),
	pageName("paths.about_page", func(c *Config) string { return c.Paths.AboutPage }),
	foundation.Check("build.manifest", "relative", "must be a plain file name", func(c *Config) bool {
		return c.Build.Manifest == "" || isPlainName(c.Build.Manifest)
	}),
	foundation.Check("repository.forge", "enum", "must be one of "+strings.Join(forgeTypes.Keys(), ", "), func(c *Config) bool {
		return forgeTypes.Valid(string(c.Repository.Forge))
	}),
	foundation.Check("repository.base_url", "url", "must be an absolute http(s) URL", func(c *Config) bool {
		if c.Repository.BaseURL == "" {
			return true
		}
		u, err := url.Parse(c.Repository.BaseURL)
		return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	}),
	foundation.Check("build.slug_collision", "enum", "must be one of "+strings.Join(collisionPolicies.Keys(), ", "), func(c *Config) bool {
		return collisionPolicies.Valid(string(c.Build.SlugCollision))
	}),
	foundation.Check("logging.level", "enum", "must be one of "+strings.Join(logLevels.Keys(), ", "), func(c *Config) bool {
		return logLevels.Valid(string(c.Logging.Level))
	}),
	foundation.Check("logging.format", "enum", "must be one of "+strings.Join(logFormats.Keys(), ", "), func(c *Config) bool {
		return logFormats.Valid(string(c.Logging.Format))
	}),
)

func pageName(field string, get func(*Config) string) foundation.Validator[*Config] {
	return foundation.Check(field, "name", "must be a plain file name", func(c *Config) bool {
		return isPlainName(get(c))
	})
}

func isPlainName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func isInsideRelative(p string) bool {
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return false
	}
	clean := filepath.ToSlash(filepath.Clean(p))
	return clean != "." && clean != ".." && !strings.HasPrefix(clean, "../")
}
