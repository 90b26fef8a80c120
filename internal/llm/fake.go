package llm

import "context"

// FakeClient returns canned responses for tests and offline runs.
type FakeClient struct {
	ContentResponse string
	JSONResponse    string
	Err             error

	// Prompts records every prompt received, newest last.
	Prompts []string
}

func (f *FakeClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	f.Prompts = append(f.Prompts, prompt)
	if f.Err != nil {
		return "", f.Err
	}
	return f.ContentResponse, nil
}

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	f.Prompts = append(f.Prompts, prompt)
	if f.Err != nil {
		return "", f.Err
	}
	return CleanJSONBlock(f.JSONResponse), nil
}

func (f *FakeClient) Close() error { return nil }
