package validate

import (
	"strings"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string {
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Add appends f when it is non-nil.
func (e *Errs) Add(f *ErrField) {
	if f != nil {
		*e = append(*e, *f)
	}
}

func (e Errs) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Required rejects empty values. Whitespace counts as content: credentials are
// compared byte for byte.
func Required(field, value string) *ErrField {
	if value == "" {
		return &ErrField{Field: field, Msg: "required"}
	}
	return nil
}
