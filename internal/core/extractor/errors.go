package extractor

// ExtractionError reports a failure to resolve media info: an unparseable
// input, a platform-reported unplayable video, or an undecodable response.
type ExtractionError struct {
	Msg string
	Err error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil && e.Msg != "" {
		return e.Msg + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// FormatError reports that no format satisfied the selection criteria.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return e.Msg }
