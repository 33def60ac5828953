package build

import "errors"

// ErrSlugCollision is wrapped by the error returned when two sources map to
// the same output page and the collision policy is "fail".
var ErrSlugCollision = errors.New("slug collision")
