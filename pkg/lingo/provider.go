package lingo

import "context"

// TranslationRequest asks the provider to translate Text between two languages
// using a named service.
type TranslationRequest struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
	Service        string
}

// TransliterationRequest asks the provider to transliterate Text with the
// scheme identified by SchemeID ("<service>:<scheme>").
type TransliterationRequest struct {
	Text     string
	SchemeID string
}

// LookupRequest asks the provider for a dictionary lookup of Text in the
// dictionary identified by DictionaryID ("<service>:<dictionary>").
type LookupRequest struct {
	Text         string
	DictionaryID string
}

// RomanizationRequest asks the provider to romanize Chinese Text.
type RomanizationRequest struct {
	Text        string
	System      RomanizationSystem
	ToneNumbers bool
	Spaces      bool
}

// RomanizationResult is the provider's segmentation of the text into words,
// each with an ordered list of candidate romanizations.
type RomanizationResult struct {
	WordList  []string
	Solutions [][]string
}

// Provider is the contract of the external language-processing backend.
// Implementations are injected explicitly; the test and production backends
// are selected by the caller, never by mutable global state.
//
// Transient failures should be reported as errors implementing
// interface{ Timeout() bool } (net.Error does) or wrapping
// context.DeadlineExceeded; the Gateway retries only those.
type Provider interface {
	Translate(ctx context.Context, req TranslationRequest) (string, error)
	Transliterate(ctx context.Context, req TransliterationRequest) (string, error)
	DictionaryLookup(ctx context.Context, req LookupRequest) (string, error)
	Romanize(ctx context.Context, req RomanizationRequest) (*RomanizationResult, error)

	// LanguageCatalog returns the supported-language metadata and the quota
	// tier of each service.
	LanguageCatalog(ctx context.Context) (*Catalog, error)
}
