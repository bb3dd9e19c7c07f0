// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"reflect"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"chat", ModeChat, false},
		{"Assistant", ModeAssistant, false},
		{"  CHAT ", ModeChat, false},
		{"", "", true},
		{"news", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMode_Next(t *testing.T) {
	if ModeChat.Next() != ModeAssistant {
		t.Errorf("chat.Next() = %q", ModeChat.Next())
	}
	if ModeAssistant.Next() != ModeChat {
		t.Errorf("assistant.Next() = %q", ModeAssistant.Next())
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"user", RoleUser, false},
		{"Human", RoleUser, false},
		{"assistant", RoleAssistant, false},
		{"model", RoleAssistant, false},
		{"system", "", true},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRole_Display(t *testing.T) {
	if RoleUser.Avatar() != "U" || RoleAssistant.Avatar() != "A" {
		t.Error("unexpected avatars")
	}
	if RoleAssistant.DisplayName() != "Assistant" {
		t.Errorf("DisplayName = %q", RoleAssistant.DisplayName())
	}
	if Role("tool").Valid() {
		t.Error("tool role should not be valid")
	}
}

func TestReply_HasResults(t *testing.T) {
	var nilReply *Reply
	if nilReply.HasResults() {
		t.Error("nil reply should have no results")
	}
	r := &Reply{Results: []ResultItem{{Title: "t"}}}
	if !r.HasResults() {
		t.Error("expected results")
	}
}

func TestReplyEntries(t *testing.T) {
	if got := ReplyEntries(nil); got != nil {
		t.Errorf("ReplyEntries(nil) = %v, want nil", got)
	}

	plain := ReplyEntries(&Reply{Text: "hi", Results: []ResultItem{}})
	if len(plain) != 1 || !reflect.DeepEqual(plain[0], AssistantEntry("hi")) {
		t.Errorf("reply without results = %+v, want one assistant bubble", plain)
	}

	items := []ResultItem{{Title: "A"}, {Title: "B"}}
	withCards := ReplyEntries(&Reply{Text: "two stories", Results: items})
	if len(withCards) != 2 {
		t.Fatalf("len = %d, want 2", len(withCards))
	}
	if withCards[0].Kind != EntryResults || len(withCards[0].Results) != 2 {
		t.Errorf("first entry = %+v, want the card group", withCards[0])
	}
	if withCards[1].Kind != EntryMessage || withCards[1].Text != "two stories" {
		t.Errorf("second entry = %+v, want the assistant bubble", withCards[1])
	}
}

func TestEntryFromStored(t *testing.T) {
	e := EntryFromStored(StoredMessage{ID: 3, Role: RoleUser, Content: "hello"})
	if !reflect.DeepEqual(e, UserEntry("hello")) {
		t.Errorf("EntryFromStored = %+v", e)
	}
	if EntryError.String() != "error" || EntryKind(99).String() != "unknown" {
		t.Error("unexpected EntryKind names")
	}
}
