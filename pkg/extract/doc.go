// Package extract provides extraction providers that turn plain text into
// raw triples for the linking pipeline.
//
// LLMExtractor asks a chat model for a JSON array of triples and repairs
// malformed output. RuleExtractor applies fixed regular expressions for
// tunnel specifications and safety equipment. Safe wraps any provider so
// that a failure yields zero triples.
package extract
