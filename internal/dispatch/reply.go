// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/newsdesk/internal/model"
)

// replyLocation says where an endpoint puts the reply text.
type replyLocation int

const (
	// replyTopLevel: {"reply": "...", "results": [...]} (/chat)
	replyTopLevel replyLocation = iota

	// replyInSummary: {"summary": {"reply": "...", "thread_id": "..."}, "results": [...]} (/assistant)
	replyInSummary
)

// wireReply is the union of both endpoint bodies. Pointers distinguish an
// absent reply from an empty one.
type wireReply struct {
	Reply   *string            `json:"reply"`
	Source  string             `json:"source"`
	Type    string             `json:"type"`
	Results []model.ResultItem `json:"results"`
	Summary *wireSummary       `json:"summary"`
}

type wireSummary struct {
	Reply    *string `json:"reply"`
	ThreadID string  `json:"thread_id"`
}

// decodeReply decodes a 2xx body into a Reply, reading the text from loc.
//
// An assistant body without a summary falls back to a top-level reply: the
// backend answers both endpoints with {"reply": ..., "source": "None"} when
// the news search finds nothing.
func decodeReply(body []byte, loc replyLocation) (*model.Reply, error) {
	var wire wireReply
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	reply := &model.Reply{
		Source:  wire.Source,
		Type:    wire.Type,
		Results: wire.Results,
	}
	if reply.Results == nil {
		reply.Results = []model.ResultItem{}
	}

	var text *string
	if loc == replyInSummary && wire.Summary != nil {
		text = wire.Summary.Reply
		reply.ThreadID = wire.Summary.ThreadID
	}
	if text == nil {
		text = wire.Reply
	}
	if text == nil {
		return nil, ErrMissingReply
	}
	reply.Text = *text

	return reply, nil
}
