package llm

import "context"

// Static returns a fixed completion for every prompt. Useful for local
// development and tests where no model provider is configured.
type Static struct {
	Response string
	Err      error
}

func (s *Static) Complete(_ context.Context, _, _ string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}

	return s.Response, nil
}
