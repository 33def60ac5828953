// Package config defines the blog generator configuration, its defaults and
// the YAML loader.
package config

// DefaultPath is the configuration file consulted when none is named.
const DefaultPath = "blog.yaml"

// Config is the complete generator configuration.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Paths      PathsConfig      `yaml:"paths"`
	Repository RepositoryConfig `yaml:"repository"`
	Build      BuildConfig      `yaml:"build"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SiteConfig holds values rendered into every page.
type SiteConfig struct {
	Title               string `yaml:"title"`
	Language            string `yaml:"language"`
	Copyright           string `yaml:"copyright"`             // trusted HTML
	RecentPosts         int    `yaml:"recent_posts"`          // 0 = all posts on the home page
	TimezoneOffsetHours int    `yaml:"timezone_offset_hours"` // fixed UTC offset for build dates
}

// PathsConfig locates inputs and outputs. Page names are relative to
// OutputDir; PostsDir holds one page per post.
type PathsConfig struct {
	SourceDir    string `yaml:"source_dir"`
	OutputDir    string `yaml:"output_dir"`
	PostsDir     string `yaml:"posts_dir"`
	TemplatesDir string `yaml:"templates_dir"` // empty = built-in templates
	ReservedFile string `yaml:"reserved_file"`
	IndexFile    string `yaml:"index_file"`
	PostsPage    string `yaml:"posts_page"`
	AboutPage    string `yaml:"about_page"`
	CSSFile      string `yaml:"css_file"`
}

// RepositoryConfig identifies the hosted repository the sources live in.
type RepositoryConfig struct {
	Forge     ForgeType `yaml:"forge"`
	BaseURL   string    `yaml:"base_url"`
	Owner     string    `yaml:"owner"`
	Name      string    `yaml:"name"`
	Branch    string    `yaml:"branch"`
	Remote    string    `yaml:"remote"`
	Detect    bool      `yaml:"detect"`     // fill owner/name from the git remote when empty
	EditLinks bool      `yaml:"edit_links"` // edit and issue links on post pages
}

// Known reports whether owner and name are both set.
func (r RepositoryConfig) Known() bool {
	return r.Owner != "" && r.Name != ""
}

// FullName returns "owner/name".
func (r RepositoryConfig) FullName() string {
	return r.Owner + "/" + r.Name
}

// BuildConfig tunes build behaviour.
type BuildConfig struct {
	StrictPlaceholders bool            `yaml:"strict_placeholders"`
	SlugCollision      CollisionPolicy `yaml:"slug_collision"`
	VerifyLinks        bool            `yaml:"verify_links"`
	Manifest           string          `yaml:"manifest"` // output-relative file name, empty = off
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}
