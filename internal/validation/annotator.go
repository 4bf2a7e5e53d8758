package validation

import "sync"

// Annotator is the presentation side of a rule: ShowError attaches a
// message to a field, RemoveError clears it.
type Annotator interface {
	ShowError(fieldID, message string)
	RemoveError(fieldID string)
}

type discard struct{}

func (discard) ShowError(string, string) {}
func (discard) RemoveError(string)       {}

// Discard ignores all annotations.
var Discard Annotator = discard{}

// FieldErrors collects the current message per field.  A field that later
// passes is removed again, so after a composite validation the map holds
// exactly the fields that failed.
type FieldErrors struct {
	mu   sync.Mutex
	errs map[string]string
}

// NewFieldErrors returns an empty collector.
func NewFieldErrors() *FieldErrors {
	return &FieldErrors{errs: make(map[string]string)}
}

func (f *FieldErrors) ShowError(fieldID, message string) {
	f.mu.Lock()
	f.errs[fieldID] = message
	f.mu.Unlock()
}

func (f *FieldErrors) RemoveError(fieldID string) {
	f.mu.Lock()
	delete(f.errs, fieldID)
	f.mu.Unlock()
}

// Get returns the message for fieldID, if any.
func (f *FieldErrors) Get(fieldID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.errs[fieldID]
	return m, ok
}

// Map returns a copy of all field errors.
func (f *FieldErrors) Map() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.errs))
	for k, v := range f.errs {
		out[k] = v
	}
	return out
}

// Len reports how many fields currently have an error.
func (f *FieldErrors) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errs)
}

// Reset clears every annotation, like clearing all errors of a form.
func (f *FieldErrors) Reset() {
	f.mu.Lock()
	f.errs = make(map[string]string)
	f.mu.Unlock()
}
