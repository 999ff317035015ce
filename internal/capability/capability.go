// Package capability derives which control operations are meaningful for a
// given control authority and active source.
package capability

import (
	"github.com/tessro/linkctl/internal/core"
	"github.com/tessro/linkctl/internal/source"
)

// Resolver computes capabilities against a vocabulary.
type Resolver struct {
	vocab *source.Vocabulary
}

// NewResolver creates a resolver. A nil vocabulary uses the locked default.
func NewResolver(vocab *source.Vocabulary) *Resolver {
	if vocab == nil {
		vocab = source.Default()
	}
	return &Resolver{vocab: vocab}
}

// Resolve returns the capabilities for authority and the active source.
// The result depends on nothing but its arguments.
func (r *Resolver) Resolve(authority core.Authority, id core.SourceIdentity) core.Capabilities {
	queueOwning := r.vocab.IsQueueOwning(id)
	local := authority == core.AuthorityLocal

	return core.Capabilities{
		Shuffle:      local && queueOwning,
		Repeat:       local && queueOwning,
		Seek:         local,
		QueueVisible: queueOwning && authority != core.AuthorityUnknown,
		Skip:         local || authority == core.AuthorityCloud,
		Playback: local || authority == core.AuthorityCloud ||
			authority == core.AuthorityPassive,
	}
}

var defaultResolver = NewResolver(nil)

// Resolve computes capabilities with the locked vocabulary.
func Resolve(authority core.Authority, id core.SourceIdentity) core.Capabilities {
	return defaultResolver.Resolve(authority, id)
}

// None is the all-false capability set.
func None() core.Capabilities {
	return core.Capabilities{}
}
