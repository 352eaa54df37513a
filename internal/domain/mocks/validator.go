package mocks

// Validator is a mock implementation of ports.Validator.
// Func takes precedence over Err when set.
type Validator struct {
	Func  func(v any) error
	Err   error
	Calls int
}

// Validate returns the configured result.
func (m *Validator) Validate(v any) error {
	m.Calls++
	if m.Func != nil {
		return m.Func(v)
	}
	return m.Err
}
