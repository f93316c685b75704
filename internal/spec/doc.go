// Package spec defines the closed set of transform steps and their compact,
// URL-safe token encoding.
//
// A Spec is an ordered list of steps. Order is significant: steps are applied
// left to right and the codec preserves order exactly.
//
// # Token Format
//
// A token is the unpadded base64url encoding of a small binary document:
//
//	[version:1][stepCount:uvarint]{[tag:1][payload]}*
//
// Payloads by tag:
//
//	resize     [width:uvarint][height:uvarint][filter:1]
//	crop       [x1:uvarint][y1:uvarint][x2:uvarint][y2:uvarint]
//	fliph      (empty)
//	flipv      (empty)
//	contrast   [amount:4, IEEE-754 float32, big endian]
//	filter     [kind:1]
//	watermark  [x:uvarint][y:uvarint]
//
// Tokens only contain the characters A-Z, a-z, 0-9, '-' and '_', so they can
// be used as a single URL path segment without escaping.
//
// # Untrusted Input
//
// Decode is written for attacker-controlled tokens. Every length is checked
// against the bytes actually present before anything is allocated, unknown
// tags and enum values are rejected, and trailing bytes are an error.
package spec
