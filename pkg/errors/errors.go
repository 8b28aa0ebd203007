package errors

import "fmt"

// Error codes
const (
	CodeScraperError = "SCRAPER_ERROR"
	CodeFetch        = "FETCH_ERROR"
	CodeExtraction   = "EXTRACTION_ERROR"
	CodeStorage      = "STORAGE_ERROR"
	CodeValidation   = "VALIDATION_ERROR"
	CodeCache        = "CACHE_ERROR"
	CodeService      = "SERVICE_ERROR"
)

type ScraperError struct {
	Message string
	Code    string
	Context map[string]any
	Cause   error
}

func (e *ScraperError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ScraperError) Unwrap() error {
	return e.Cause
}

func NewScraperError(message, code string, context map[string]any) *ScraperError {
	return &ScraperError{
		Message: message,
		Code:    code,
		Context: context,
	}
}

func (e *ScraperError) WithCause(cause error) *ScraperError {
	e.Cause = cause
	return e
}

// FetchError is reported when the crawl engine gives up on a URL.
type FetchError struct {
	*ScraperError
	URL        string
	StatusCode int
}

func NewFetchError(message, url string, statusCode int, cause error) *FetchError {
	return &FetchError{
		ScraperError: &ScraperError{
			Message: message,
			Code:    CodeFetch,
			Context: map[string]any{
				"url":         url,
				"status_code": statusCode,
			},
			Cause: cause,
		},
		URL:        url,
		StatusCode: statusCode,
	}
}

// ExtractionError wraps an unexpected failure while reading a page fragment.
// Missing nodes are not errors; they resolve to defaults.
type ExtractionError struct {
	*ScraperError
	Section string
	URL     string
}

func NewExtractionError(message, section, url string, cause error) *ExtractionError {
	return &ExtractionError{
		ScraperError: &ScraperError{
			Message: message,
			Code:    CodeExtraction,
			Context: map[string]any{
				"section": section,
				"url":     url,
			},
			Cause: cause,
		},
		Section: section,
		URL:     url,
	}
}

type StorageError struct {
	*ScraperError
	Operation string
	Path      string
}

func NewStorageError(message, operation, path string, cause error) *StorageError {
	return &StorageError{
		ScraperError: &ScraperError{
			Message: message,
			Code:    CodeStorage,
			Context: map[string]any{
				"operation": operation,
				"path":      path,
			},
			Cause: cause,
		},
		Operation: operation,
		Path:      path,
	}
}

type ValidationError struct {
	*ScraperError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		ScraperError: &ScraperError{
			Message: message,
			Code:    CodeValidation,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*ScraperError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		ScraperError: &ScraperError{
			Message: message,
			Code:    CodeCache,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ServiceError struct {
	*ScraperError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		ScraperError: &ScraperError{
			Message: message,
			Code:    CodeService,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}
