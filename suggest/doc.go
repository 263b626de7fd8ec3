// Package suggest ranks catalog resources against a client assessment by
// embedding similarity blended with keyword overlap.
//
// It is the secondary retrieval path next to the lexical search package:
// resources need vectors, produced by the reembed package, to score above
// their keyword overlap alone.
package suggest
