// Package aggregator combines sharded exchange exports.
//
// For each configured combination the Aggregator finds every file under the
// input directory matching the pattern, loads them on a bounded worker pool,
// concatenates them in discovery order and drops exact duplicate rows before
// writing the result as one CSV file. Unreadable files are skipped and
// reported; a combination with no matches or no rows writes nothing.
package aggregator
