package caption

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/photogram-hq/photogram-poster/internal/domain"
	"github.com/photogram-hq/photogram-poster/internal/logger"
)

// PickFunc selects an index in [0, n). Injected so template selection is
// deterministic in tests; the default picks uniformly at random.
type PickFunc func(n int) int

// Builder assembles post captions from an account's templates.
type Builder struct {
	pick PickFunc
	log  logger.Logger
}

// NewBuilder wires a caption builder. A nil pick falls back to a
// time-seeded uniform selection.
func NewBuilder(pick PickFunc, log logger.Logger) *Builder {
	if pick == nil {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		pick = rng.Intn
	}
	return &Builder{pick: pick, log: logger.Ensure(log)}
}

// Build renders the caption for one post: a caption template chosen by the
// pick function, then the account's hashtag line, then the author credit.
// The account must carry at least one caption template; that precondition is
// enforced by the caller. Missing hashtags or author information drop the
// corresponding section with a warning.
func (b *Builder) Build(acc domain.Account, img domain.ImageDescriptor) string {
	sections := []string{acc.Captions[b.pick(len(acc.Captions))]}

	if len(acc.Hashtags) > 0 {
		sections = append(sections, strings.Join(acc.Hashtags, " "))
	} else {
		b.log.WarnObj("account has no hashtags configured; omitting hashtag line", "user_id", acc.UserID)
	}

	if img.Author != "" {
		sections = append(sections, fmt.Sprintf("Photo by %s.", img.Author))
	} else {
		b.log.WarnObj("image descriptor has no author; omitting credit line", "user_id", acc.UserID)
	}

	return strings.Join(sections, "\n\n")
}
