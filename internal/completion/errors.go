package completion

import "fmt"

// CatalogError occurs when the suggestion catalog is malformed.
type CatalogError struct {
	Section string
	Label   string
	Message string
	Err     error
}

func (e *CatalogError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("catalog: %s: %v", e.Message, e.Err)
	case e.Label != "":
		return fmt.Sprintf("catalog section %s: %s %q", e.Section, e.Message, e.Label)
	default:
		return fmt.Sprintf("catalog section %s: %s", e.Section, e.Message)
	}
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}
