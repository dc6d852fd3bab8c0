// Package ident assigns stable per-export reference ids to recipe
// ingredients and resolves step mentions back to them.
package ident

import (
	"github.com/google/uuid"

	"github.com/ephes/kptncook/internal/model"
)

// Resolution maps ingredient list positions and step mentions to synthetic
// reference ids for one recipe export. Ids are freshly generated per
// resolution and must not be reused across exports.
type Resolution struct {
	// RefIDs holds one generated id per ingredient list position.
	RefIDs []string

	// byUpstream maps an upstream ingredient id to every list position
	// that carries it. Duplicates are deliberate: a step mention of a
	// duplicated ingredient refers to all of its occurrences.
	byUpstream map[string][]string
}

// Resolve generates a reference id for every entry of the recipe's flat
// ingredient list and indexes them by upstream ingredient id.
func Resolve(r *model.Recipe) *Resolution {
	res := &Resolution{
		RefIDs:     make([]string, len(r.Ingredients)),
		byUpstream: make(map[string][]string),
	}
	for i, ing := range r.Ingredients {
		refID := uuid.NewString()
		res.RefIDs[i] = refID
		if upstreamID := ing.Ingredient.ID; upstreamID != "" {
			res.byUpstream[upstreamID] = append(res.byUpstream[upstreamID], refID)
		}
	}
	return res
}

// ForUpstream returns the reference ids of every ingredient list entry
// carrying the given upstream id, in list order. Unknown ids resolve to
// nothing.
func (r *Resolution) ForUpstream(upstreamID string) []string {
	if upstreamID == "" {
		return nil
	}
	return r.byUpstream[upstreamID]
}

// StepRefs resolves the mentions of one step to reference ids, preserving
// mention order and dropping mentions without a resolvable upstream id.
func (r *Resolution) StepRefs(step model.RecipeStep) []string {
	var refs []string
	for _, mention := range step.Ingredients {
		refs = append(refs, r.ForUpstream(mention.UpstreamID())...)
	}
	return refs
}
