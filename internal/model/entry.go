// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// TRANSCRIPT ENTRY
// =============================================================================

// EntryKind distinguishes the things a transcript shows.
type EntryKind int

const (
	// EntryMessage is a user or assistant bubble.
	EntryMessage EntryKind = iota

	// EntryResults is the group of news cards that came with a reply.
	EntryResults

	// EntryError is an assistant-shaped bubble reporting a failed exchange.
	EntryError
)

// String returns the kind name used in exports.
func (k EntryKind) String() string {
	switch k {
	case EntryMessage:
		return "message"
	case EntryResults:
		return "results"
	case EntryError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is one item of a rendered conversation.
type Entry struct {
	Kind    EntryKind    `json:"kind"`
	Role    Role         `json:"role,omitempty"`
	Text    string       `json:"text,omitempty"`
	Results []ResultItem `json:"results,omitempty"`
}

// UserEntry returns a user bubble.
func UserEntry(text string) Entry {
	return Entry{Kind: EntryMessage, Role: RoleUser, Text: text}
}

// AssistantEntry returns an assistant bubble.
func AssistantEntry(text string) Entry {
	return Entry{Kind: EntryMessage, Role: RoleAssistant, Text: text}
}

// ResultsEntry returns a card group.
func ResultsEntry(items []ResultItem) Entry {
	return Entry{Kind: EntryResults, Role: RoleAssistant, Results: items}
}

// ErrorEntry returns an error bubble.
func ErrorEntry(text string) Entry {
	return Entry{Kind: EntryError, Role: RoleAssistant, Text: text}
}

// EntryFromStored converts a stored row into a bubble.
func EntryFromStored(msg StoredMessage) Entry {
	return Entry{Kind: EntryMessage, Role: msg.Role, Text: msg.Content}
}

// ReplyEntries returns the entries for a reply: the cards (if any) first,
// then the assistant bubble.
func ReplyEntries(reply *Reply) []Entry {
	if reply == nil {
		return nil
	}
	entries := make([]Entry, 0, 2)
	if reply.HasResults() {
		entries = append(entries, ResultsEntry(reply.Results))
	}
	return append(entries, AssistantEntry(reply.Text))
}
