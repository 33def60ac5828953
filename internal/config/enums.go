package config

import "git.home.luguber.info/inful/blogbuilder/internal/foundation/normalization"

// ForgeType enumerates supported forge providers.
type ForgeType string

const (
	ForgeGitHub  ForgeType = "github"
	ForgeGitLab  ForgeType = "gitlab"
	ForgeForgejo ForgeType = "forgejo"
)

// CollisionPolicy decides what happens when two sources map to the same slug.
type CollisionPolicy string

const (
	CollisionFail      CollisionPolicy = "fail"
	CollisionOverwrite CollisionPolicy = "overwrite"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

var (
	forgeTypes        = normalization.NewEnum("forge type", ForgeGitHub, ForgeGitHub, ForgeGitLab, ForgeForgejo)
	collisionPolicies = normalization.NewEnum("slug collision policy", CollisionFail, CollisionFail, CollisionOverwrite)
	logLevels         = normalization.NewEnum("log level", LogLevelInfo, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)
	logFormats        = normalization.NewEnum("log format", LogFormatText, LogFormatText, LogFormatJSON)
)

// NormalizeForgeType canonicalizes a forge type string (case-insensitive) or returns empty if unknown.
func NormalizeForgeType(raw string) ForgeType {
	v, err := forgeTypes.Parse(raw)
	if err != nil {
		return ""
	}
	return v
}

// NormalizeLogLevel canonicalizes a level, falling back to info.
func NormalizeLogLevel(raw string) LogLevel { return logLevels.Normalize(raw) }

// NormalizeLogFormat canonicalizes a format, falling back to text.
func NormalizeLogFormat(raw string) LogFormat { return logFormats.Normalize(raw) }
