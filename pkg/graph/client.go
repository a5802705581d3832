package graph

import (
	"github.com/lexguard/backend/pkg/leaselock"
)

// GraphClient is the main client for building and analyzing the document
// graph. It manages extraction, conflict analysis, retry behavior and
// prompt budgeting.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	locks           *leaselock.Client
	maxRetries      int
	maxPromptTokens int
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// Locks serializes analysis runs over the same document set; nil disables
// locking. MaxRetries bounds AI transport retries. MaxPromptTokens caps
// the document content handed to the extraction model.
type NewGraphClientParams struct {
	Locks           *leaselock.Client
	MaxRetries      int
	MaxPromptTokens int
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	maxPromptTokens := params.MaxPromptTokens
	if maxPromptTokens <= 0 {
		maxPromptTokens = 24000
	}

	return &GraphClient{
		locks:           params.Locks,
		maxRetries:      maxRetries,
		maxPromptTokens: maxPromptTokens,
	}, nil
}
