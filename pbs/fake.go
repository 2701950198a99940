package pbs

// FakeSubmitter records requests instead of dispatching them. For tests and
// dry runs.
type FakeSubmitter struct {
	Requests []SubmitRequest
	Err      error
}

func (f *FakeSubmitter) Submit(req SubmitRequest) error {
	if f.Err != nil {
		return f.Err
	}
	f.Requests = append(f.Requests, req)
	return nil
}
