// Package solver implements the PD-TSP solving strategies: constructive
// heuristics, neighborhood-based local search and the metaheuristic
// controllers built on top of them (simulated annealing, tabu search,
// iterated local search, genetic/memetic evolution, ant colonies and the
// hybrid pipeline).
//
// Every run is driven through Solve with an explicit seed and time budget.
// Runs are anytime: the best tour observed so far is tracked continuously,
// published on an optional progress bus and returned when the budget runs
// out. Two runs with the same instance, algorithm and seed produce identical
// results regardless of concurrent activity.
package solver
