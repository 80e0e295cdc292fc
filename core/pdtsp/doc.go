// Package pdtsp defines the Pickup-and-Delivery TSP data model shared by all
// solvers: immutable problem instances, the cost models, load profiles and
// evaluated solutions. Search algorithms live in core/solver and only depend
// on the types and evaluation primitives defined here.
package pdtsp
