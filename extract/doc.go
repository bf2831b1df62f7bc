// Package extract walks the parsed-declaration stream of one partition
// and builds the intermediate model.
//
// Extraction is restricted to the partition's traversal scope: only
// declarations located in one of the scope files are extracted, except
// preprocessor constants, which are expanded into the translation unit
// regardless of where they were defined and are therefore exempt.
//
// Extraction never fails a run. Constructs the output format cannot
// represent (variadic functions, function-like macros, 128-bit
// integers) are skipped with a diagnostic and a warning.
package extract
