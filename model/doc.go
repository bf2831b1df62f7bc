// Package model defines the intermediate representation shared by the
// extractor and the metadata emitter.
//
// The types here are deliberately neutral: they know nothing about the
// parsing front-end that produced them or about the ECMA-335 tables they
// will be written into. A Partition is built once during extraction and
// is immutable afterwards.
package model
