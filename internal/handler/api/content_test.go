// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/olegiv/newsdesk/internal/model"
	"github.com/olegiv/newsdesk/internal/testutil"
)

func TestCreateContent(t *testing.T) {
	env := newTestEnv(t)
	env.editor("Marie", "marie@example.com")
	cookies := env.login("marie@example.com")

	rr := env.do(http.MethodPost, RouteContent, CreateContentRequest{
		Kind:  model.KindArticle,
		Title: "Élection à Lyon",
	}, cookies)
	assertStatus(t, rr, http.StatusCreated)
	item := decodeData[ContentResponse](t, rr)
	if item.Slug != "election-a-lyon" || item.IsPublished {
		t.Errorf("item = %+v", item)
	}

	rr = env.do(http.MethodGet, fmt.Sprintf("/content/%d", item.ID), nil, cookies)
	assertStatus(t, rr, http.StatusOK)
}

func TestCreateContent_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.editor("Marie", "marie@example.com")
	cookies := env.login("marie@example.com")

	rr := env.do(http.MethodPost, RouteContent, CreateContentRequest{Kind: "podcast"}, cookies)
	assertStatus(t, rr, http.StatusBadRequest)
	got := decodeError(t, rr)
	if got.Details["title"] == "" || got.Details["kind"] == "" {
		t.Errorf("details = %v", got.Details)
	}
}

func TestSetPinState_PinsAndUnpins(t *testing.T) {
	env := newTestEnv(t)
	env.editor("Marie", "marie@example.com")
	cookies := env.login("marie@example.com")
	older := env.f.Item("older")
	newer := env.f.Item("newer")

	rr := env.do(http.MethodPut, fmt.Sprintf("/content/%d/pin", older.ID), PinRequest{
		IsPinned: true, BlockID: model.BlockHeadline, Position: 1,
	}, cookies)
	assertStatus(t, rr, http.StatusOK)
	res := decodeData[PinResponse](t, rr)
	if res.Title != "older" || res.BlockID != model.BlockHeadline {
		t.Errorf("result = %+v", res)
	}
	if got := placedIDs(res.Items); !equalIDs(got, []int64{older.ID, newer.ID}) {
		t.Errorf("items = %v", got)
	}
	if reloaded := env.f.Reload(older.ID); !reloaded.IsPinned {
		t.Error("item not marked pinned")
	}

	rr = env.do(http.MethodPut, fmt.Sprintf("/content/%d/pin", older.ID), PinRequest{IsPinned: false}, cookies)
	assertStatus(t, rr, http.StatusOK)
	if reloaded := env.f.Reload(older.ID); reloaded.IsPinned {
		t.Error("item still pinned")
	}
}

func TestSetPinState_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.editor("Marie", "marie@example.com")
	cookies := env.login("marie@example.com")
	item := env.f.Item("story")
	draft := env.f.Item("draft", testutil.Unpublished())

	tests := []struct {
		name string
		id   int64
		req  PinRequest
		want int
	}{
		{"missing block", item.ID, PinRequest{IsPinned: true, Position: 1}, http.StatusBadRequest},
		{"missing position", item.ID, PinRequest{IsPinned: true, BlockID: model.BlockHeadline}, http.StatusBadRequest},
		{"unknown item", 9999, PinRequest{IsPinned: true, BlockID: model.BlockHeadline, Position: 1}, http.StatusNotFound},
		{"unpublished item", draft.ID, PinRequest{IsPinned: true, BlockID: model.BlockHeadline, Position: 1}, http.StatusConflict},
		{"scoped without category", item.ID, PinRequest{IsPinned: true, BlockID: model.ScopedBlockID, Position: 1}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodPut, fmt.Sprintf("/content/%d/pin", tt.id), tt.req, cookies)
			assertStatus(t, rr, tt.want)
		})
	}
}

func TestWorkflow_LockConflict(t *testing.T) {
	env := newTestEnv(t)
	env.editor("Marie", "marie@example.com")
	env.editor("Paul", "paul@example.com")
	marie := env.login("marie@example.com")
	paul := env.login("paul@example.com")
	item := env.f.Item("story")

	rr := env.do(http.MethodPost, fmt.Sprintf("/content/%d/lock", item.ID), nil, marie)
	assertStatus(t, rr, http.StatusOK)
	if got := decodeData[ContentResponse](t, rr); !got.IsLocked {
		t.Error("item not locked")
	}

	rr = env.do(http.MethodPost, fmt.Sprintf("/content/%d/unpublish", item.ID), nil, paul)
	assertStatus(t, rr, http.StatusLocked)
	if got := decodeError(t, rr); got.Code != "lock_conflict" {
		t.Errorf("code = %q", got.Code)
	}

	rr = env.do(http.MethodDelete, fmt.Sprintf("/content/%d/lock", item.ID), nil, marie)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(http.MethodPost, fmt.Sprintf("/content/%d/unpublish", item.ID), nil, paul)
	assertStatus(t, rr, http.StatusOK)
	if got := decodeData[ContentResponse](t, rr); got.IsPublished {
		t.Error("item still published")
	}
}

func TestWorkflow_PublishAndTrash(t *testing.T) {
	env := newTestEnv(t)
	env.editor("Marie", "marie@example.com")
	cookies := env.login("marie@example.com")
	draft := env.f.Item("draft", testutil.Unpublished())

	rr := env.do(http.MethodPost, fmt.Sprintf("/content/%d/publish", draft.ID), nil, cookies)
	assertStatus(t, rr, http.StatusOK)
	if got := decodeData[ContentResponse](t, rr); !got.IsPublished || got.PublishDate == nil {
		t.Errorf("published = %+v", got)
	}

	rr = env.do(http.MethodPost, fmt.Sprintf("/content/%d/trash", draft.ID), nil, cookies)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(http.MethodPost, fmt.Sprintf("/content/%d/publish", draft.ID), nil, cookies)
	assertStatus(t, rr, http.StatusConflict)

	rr = env.do(http.MethodPost, "/content/0/publish", nil, cookies)
	assertStatus(t, rr, http.StatusBadRequest)
}
