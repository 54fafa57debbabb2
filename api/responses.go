package api

// CheckResponse is the response for a permission check.
type CheckResponse struct {
	Allowed       bool   `json:"allowed" description:"Whether the action is allowed"`
	Decision      string `json:"decision" description:"Decision code"`
	Reason        string `json:"reason,omitempty" description:"Human-readable reason"`
	Level         string `json:"level,omitempty" description:"Permission level that decided the outcome"`
	InheritedFrom string `json:"inherited_from,omitempty" description:"Ancestor folder whose grant decided the outcome"`
	EvalTimeNs    int64  `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// BatchCheckResponse contains results for multiple checks.
type BatchCheckResponse struct {
	Results []CheckResponse `json:"results" description:"Check results in order"`
}

// SweepResponse reports the outcome of an expired-grant sweep.
type SweepResponse struct {
	Removed int64 `json:"removed" description:"Number of expired grants removed"`
}

// PurgeResponse reports the outcome of an audit log purge.
type PurgeResponse struct {
	Removed int64 `json:"removed" description:"Number of audit entries removed"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}
