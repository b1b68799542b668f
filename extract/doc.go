// Package extract isolates the structured payload block from a raw LLM
// response.
//
// A model reply is untrusted free-form text: prose before and after the
// payload, inconsistent fence tags, stray whitespace. Extract scans for
// fenced blocks line by line and selects the first block whose tag matches
// the expected format (an untagged block matches any format). Closing
// fences are matched against the opening run's character and length, so
// fence-like sequences inside the payload content never terminate the
// block early.
//
// Example usage:
//
//	payload, err := extract.Extract(response, extract.FormatJSON)
//	if errors.Is(err, extract.ErrNoBlock) {
//	    // model never produced a fenced payload
//	}
package extract
