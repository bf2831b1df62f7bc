// Package pipeline orchestrates a full metadata generation run.
//
// A run has four phases, always in this order:
//
//  1. Seed: type imports are read and their names registered, so later
//     partitions reference external definitions instead of redefining
//     them.
//  2. Extract: each configured partition is parsed by the front-end and
//     its in-scope declarations collected, registering every type name
//     first-writer-wins.
//  3. Dedup: definitions whose name an earlier partition or an import
//     already owns are dropped from later partitions.
//  4. Emit: surviving partitions are written into one metadata file.
//     A partition with unresolved type references is withheld as a
//     whole and reported; the rest of the file is still produced.
package pipeline
