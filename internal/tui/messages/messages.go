// Package messages defines the bubbletea message types that flow through
// the terminal composer.
package messages

import (
	"time"

	"github.com/dalemusser/linguashift/internal/app/system/compose"
	"github.com/dalemusser/linguashift/internal/client"
)

// StateChanged carries the latest composition state.
type StateChanged struct {
	State compose.State
}

// Sent reports the outcome of sending the draft.
type Sent struct {
	Err error
}

// FeedLoaded carries the channel's messages, oldest first. Scheduled is
// set when the load came from the poll loop.
type FeedLoaded struct {
	Messages  []client.Message
	Err       error
	Scheduled bool
}

// PollDue asks for the channel feed to be refreshed.
type PollDue struct {
	At time.Time
}
