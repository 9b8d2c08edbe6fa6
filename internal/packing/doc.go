// Package packing encodes bin packing as an assignment MIP and decodes the
// solver output back into per-bin assignments.
//
// For n items every one of the n candidate bins gets a 0/1 column per item
// (assign[i][b]) and one 0/1 column telling whether it is used (used[b]).
// Each bin carries a capacity row and two big-M rows linking used[b] to its
// load; each item carries a partition row. The objective counts used bins.
package packing
