// Package gemini implements the service.Analyzer interface using Google's
// Gemini API.
//
// The adapter renders provider-independent prompts from the service package,
// calls GenerateContent in JSON mode, and decodes the model output back into
// service types. Transient API failures are retried with exponential backoff
// and jitter; safety blocks and unparseable output are permanent and surface
// as service.ErrContentBlocked and service.ErrInvalidResponse.
package gemini
