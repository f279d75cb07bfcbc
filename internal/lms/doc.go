// Package lms provides an HTTP client for the learning-management API.
//
// # Overview
//
// The client is stateless with respect to authentication: every call that
// needs a bearer token takes it as an argument. Session state lives in the
// state.Store; this package only moves bytes and shapes them into types.
//
// # Files
//
//   - client.go: request construction, status handling, typed endpoints
//   - types.go: records mirroring the API payloads
//   - decode.go: list and object normalization
//
// # List Normalization
//
// The API is inconsistent about list envelopes. Depending on the endpoint a
// list arrives as a bare array, as {"results": [...]}, or under an entity key
// such as {"progress": [...]}. DecodeList accepts all three and returns an
// empty slice for any other shape, so views always have something iterable:
//
//	items, err := lms.DecodeList[lms.Achievement](body, "achievements")
//
// Malformed JSON is the only decode failure.
//
// # Requests
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and User-Agent: aula/0.1
//   - Carry a fresh X-Request-ID
//   - Return *APIError for non-2xx responses, with the server's msg/message
//
// Transport failures are wrapped as "execute request: ..." and decode
// failures as "decode response: ...".
package lms
