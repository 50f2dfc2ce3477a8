// Package planner resolves destination collisions for a batch of proposed
// copies or moves.
//
// Proposals are processed once, strictly in input order. Each accepted
// destination is reserved for the rest of the batch, so no two accepted
// operations share a path. How a collision is handled depends on the
// CollisionPolicy: compare content and skip duplicates, always disambiguate
// with a numeric suffix, drop the proposal, or abort the whole plan.
package planner
