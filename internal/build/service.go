package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/linkcheck"
)

// BuildService is the canonical interface for executing blog builds.
// The CLI commands (build, watch) are thin wrappers over it.
type BuildService interface {
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to execute a build.
type BuildRequest struct {
	// Config is the loaded configuration for this build.
	Config *config.Config

	// OutputDir overrides Config.Paths.OutputDir when non-empty.
	OutputDir string

	// Strict forces fail-closed placeholder handling regardless of config.
	Strict bool
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	Status    BuildStatus
	BuildID   string
	BuildDate string // YYYY/MM/DD in the configured zone

	// OutputPath is the output root the pages were written under.
	OutputPath string

	// Posts holds the generated posts in listing order.
	Posts []Post

	// Skipped lists source documents that did not become posts.
	Skipped []SkippedDocument

	// Pages lists every page written, relative to OutputPath.
	Pages []string

	// BrokenLinks is filled when link verification is enabled.
	BrokenLinks []linkcheck.Broken

	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time
}

// SkippedDocument records why a source file produced no post.
type SkippedDocument struct {
	Source string
	Reason string
}

// Skip reasons.
const (
	ReasonUnpublished = "unpublished"
	ReasonEmptySlug   = "empty_slug"
	ReasonOverwritten = "slug_overwritten"
)

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	// BuildStatusSuccess indicates all pages were written.
	BuildStatusSuccess BuildStatus = "success"

	// BuildStatusEmpty indicates no source documents were found; nothing was written.
	BuildStatusEmpty BuildStatus = "empty"

	// BuildStatusFailed indicates the build aborted on a fault.
	BuildStatusFailed BuildStatus = "failed"

	// BuildStatusCanceled indicates the context was canceled mid-build.
	BuildStatusCanceled BuildStatus = "canceled"
)

// IsSuccess returns true if the build finished without a fault.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess || s == BuildStatusEmpty
}
