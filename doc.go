// Package apiblend converts slot-filling corpora into sequences of API
// calls.
//
// Each annotated utterance carries per-token BIO slot tags and one or more
// intent labels. The Converter splits the utterance into one clause per
// intent, decodes each clause's slot tags into named parameters and pairs
// clauses with intents by position:
//
//	conv := apiblend.New()
//	res, err := conv.Convert(ctx, corpus.Example{
//	    Tokens:  strings.Fields("book a flight to boston and also find a hotel in seattle"),
//	    Tags:    []string{"O", "O", "O", "O", "B-toloc", "O", "O", "O", "O", "O", "O", "B-city"},
//	    Intents: []string{"flight", "hotel"},
//	})
//	// res.Record.APIs[0] = {API: "flight", Parameters: {"toloc": ["boston"]}}
//	// res.Record.APIs[1] = {API: "hotel", Parameters: {"city": ["seattle"]}}
//
// # Failure Model
//
// Segmentation never fails on well-formed input. When no strategy produces
// exactly one clause per intent, the best effort is used and
// Result.Segmentation.Matched is false. Only malformed examples (no tokens,
// tag count mismatch, bad BIO tags) return an error, which callers are
// expected to count and skip.
//
// # Thread Safety
//
// Converter is safe for concurrent use when its dependency parser is.
package apiblend
