package docintel

import "fmt"

// StatusError reports an unexpected HTTP status from the analysis service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("document analysis returned status %d: %s", e.StatusCode, e.Body)
}

// ClientFault reports whether the status indicates a problem with the request
// or document rather than the service.
func (e *StatusError) ClientFault() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != 408 && e.StatusCode != 429
}

// OperationError reports a terminal analysis failure from the service.
type OperationError struct {
	Code    string
	Message string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("document analysis failed (%s): %s", e.Code, e.Message)
}

// InputFault reports whether the failure was caused by the document content
// rather than service conditions. Codes per the Document Intelligence error
// taxonomy: InvalidRequest and InvalidContent families describe the input.
func (e *OperationError) InputFault() bool {
	switch e.Code {
	case "InvalidRequest", "InvalidContent", "InvalidContentDimensions", "UnsupportedContent":
		return true
	default:
		return false
	}
}
