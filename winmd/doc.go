// Package winmd writes and reads ECMA-335 binary type metadata.
//
// The writer produces a standalone metadata blob (the .winmd payload):
// the BSJB root, the #~ table stream and the #Strings, #US, #GUID and
// #Blob heaps. Only the tables needed to describe C declarations are
// emitted: type definitions and references, fields, methods, params,
// constants, layout rows, P/Invoke maps and assembly identity.
//
// Emitter is the high-level entry point, turning extracted partitions
// into a file. Reader decodes the same subset back, enough to seed a
// type registry from an external file and to drive inspection tooling.
// Output is deterministic: the module version id is derived from the
// assembly name, and identical inputs serialize to identical bytes.
package winmd
