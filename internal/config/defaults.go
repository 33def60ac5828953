package config

import "git.home.luguber.info/inful/blogbuilder/internal/dates"

// Default returns the configuration that reproduces the classic layout:
// posts-md/*.md rendered into posts/*.html next to index.html.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Title:               "My Blog",
			Language:            "ja",
			Copyright:           "&copy; 2025 My Blog. All rights reserved.",
			RecentPosts:         5,
			TimezoneOffsetHours: dates.DefaultOffsetHours,
		},
		Paths: PathsConfig{
			SourceDir:    "posts-md",
			OutputDir:    ".",
			PostsDir:     "posts",
			ReservedFile: "_template.md",
			IndexFile:    "index.html",
			PostsPage:    "posts.html",
			AboutPage:    "about.html",
			CSSFile:      "css/style.css",
		},
		Repository: RepositoryConfig{
			Forge:     ForgeGitHub,
			BaseURL:   "https://github.com",
			Branch:    "main",
			Remote:    "origin",
			Detect:    true,
			EditLinks: true,
		},
		Build: BuildConfig{
			SlugCollision: CollisionFail,
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}

// normalize canonicalizes enumerations after validation has accepted them.
func normalize(cfg *Config) {
	cfg.Repository.Forge = forgeTypes.Normalize(string(cfg.Repository.Forge))
	cfg.Build.SlugCollision = collisionPolicies.Normalize(string(cfg.Build.SlugCollision))
	cfg.Logging.Level = logLevels.Normalize(string(cfg.Logging.Level))
	cfg.Logging.Format = logFormats.Normalize(string(cfg.Logging.Format))
	if cfg.Repository.Remote == "" {
		cfg.Repository.Remote = "origin"
	}
	if cfg.Repository.Branch == "" {
		cfg.Repository.Branch = "main"
	}
}
