package client

import (
	"encoding/json"
	"testing"
)

func TestSelfEchoConfirmsInPlace(t *testing.T) {
	canvas := NewCanvas("me")

	tempID, err := canvas.AddLocal("s1", json.RawMessage(`{"type":"rect","x":10,"y":20}`))
	if err != nil {
		t.Fatalf("AddLocal: %v", err)
	}

	outcome, id := canvas.ApplyAdded(ElementAdded{
		SlideID:         "s1",
		InitiatorUserID: "me",
		Element: Element{
			ID:         "srv-1",
			SlideID:    "s1",
			Properties: json.RawMessage(`{ "y": 20, "x": 10, "type": "rect" }`),
		},
	})
	if outcome != Reconciled || id != "srv-1" {
		t.Fatalf("expected reconciled srv-1, got %v %q", outcome, id)
	}

	elements := canvas.Elements("s1")
	if len(elements) != 1 {
		t.Fatalf("expected exactly one element, got %d", len(elements))
	}
	if elements[0].ID != "srv-1" {
		t.Fatalf("expected server id, got %q", elements[0].ID)
	}

	edit, ok := canvas.Edit(tempID)
	if !ok || edit.State != Confirmed || edit.ServerID != "srv-1" {
		t.Fatalf("unexpected edit bookkeeping: %+v", edit)
	}
	if canvas.PendingCount() != 0 {
		t.Fatal("expected no pending edits")
	}
}

func TestCreateThenDeleteDiscardsOnConfirmation(t *testing.T) {
	canvas := NewCanvas("me")

	tempID, err := canvas.AddLocal("s1", json.RawMessage(`{"type":"text"}`))
	if err != nil {
		t.Fatalf("AddLocal: %v", err)
	}
	if _, sendNow := canvas.DeleteLocal(tempID); sendNow {
		t.Fatal("a pending create has no server id to delete yet")
	}
	if len(canvas.Elements("s1")) != 0 {
		t.Fatal("expected element to disappear immediately")
	}

	outcome, id := canvas.ApplyAdded(ElementAdded{
		SlideID:         "s1",
		InitiatorUserID: "me",
		Element:         Element{ID: "srv-9", SlideID: "s1", Properties: json.RawMessage(`{"type":"text"}`)},
	})
	if outcome != DiscardedLocal || id != "srv-9" {
		t.Fatalf("expected discarded srv-9, got %v %q", outcome, id)
	}
	if len(canvas.Elements("s1")) != 0 {
		t.Fatal("confirmation must not resurrect a deleted element")
	}
	if edit, _ := canvas.Edit(tempID); edit.State != Discarded {
		t.Fatalf("expected discarded state, got %s", edit.State)
	}
}

func TestRemoteEditsAreApplied(t *testing.T) {
	canvas := NewCanvas("me")

	outcome, _ := canvas.ApplyAdded(ElementAdded{
		SlideID:         "s1",
		InitiatorUserID: "other",
		Element:         Element{ID: "srv-1", SlideID: "s1", Properties: json.RawMessage(`{"x":1}`)},
	})
	if outcome != Applied {
		t.Fatalf("expected applied, got %v", outcome)
	}

	if got := canvas.ApplyUpdated(ElementUpdated{ElementID: "srv-1", InitiatorUserID: "other", Element: Element{ID: "srv-1", Properties: json.RawMessage(`{"x":2}`)}}); got != Applied {
		t.Fatalf("expected update applied, got %v", got)
	}
	if string(canvas.Elements("s1")[0].Properties) != `{"x":2}` {
		t.Fatalf("unexpected properties %s", canvas.Elements("s1")[0].Properties)
	}

	if got := canvas.ApplyDeleted(ElementDeleted{ElementID: "srv-1", SlideID: "s1", InitiatorUserID: "other"}); got != Applied {
		t.Fatalf("expected delete applied, got %v", got)
	}
	if len(canvas.Elements("s1")) != 0 {
		t.Fatal("expected element removed")
	}
}

func TestSelfUpdateEchoIsIgnored(t *testing.T) {
	canvas := NewCanvas("me")
	canvas.ApplyAdded(ElementAdded{
		SlideID:         "s1",
		InitiatorUserID: "other",
		Element:         Element{ID: "srv-1", SlideID: "s1", Properties: json.RawMessage(`{"x":1}`)},
	})

	canvas.UpdateLocal("srv-1", json.RawMessage(`{"x":3}`))
	if got := canvas.ApplyUpdated(ElementUpdated{ElementID: "srv-1", InitiatorUserID: "me", Element: Element{Properties: json.RawMessage(`{"x":2}`)}}); got != Ignored {
		t.Fatalf("expected ignored, got %v", got)
	}
	if string(canvas.Elements("s1")[0].Properties) != `{"x":3}` {
		t.Fatal("a stale echo must not overwrite newer local state")
	}
}

func TestUnmatchedSelfEchoRendersOnce(t *testing.T) {
	canvas := NewCanvas("me")
	if _, err := canvas.AddLocal("s1", json.RawMessage(`{"x":1}`)); err != nil {
		t.Fatalf("AddLocal: %v", err)
	}

	// Another tab of the same user created something different.
	outcome, _ := canvas.ApplyAdded(ElementAdded{
		SlideID:         "s1",
		InitiatorUserID: "me",
		Element:         Element{ID: "srv-2", SlideID: "s1", Properties: json.RawMessage(`{"x":5}`)},
	})
	if outcome != Applied {
		t.Fatalf("expected applied, got %v", outcome)
	}
	if len(canvas.Elements("s1")) != 2 || canvas.PendingCount() != 1 {
		t.Fatal("expected the pending create to keep waiting")
	}
}

func TestCanonicalAcceptsStringEncodedJSON(t *testing.T) {
	a, err := canonical(json.RawMessage(`"{\"b\":1,\"a\":2}"`))
	if err != nil {
		t.Fatalf("canonical: %v", err)
	}
	b, err := canonical(json.RawMessage(`{"a":2,"b":1}`))
	if err != nil {
		t.Fatalf("canonical: %v", err)
	}
	if a != b {
		t.Fatalf("expected %s == %s", a, b)
	}
	if _, err := canonical(json.RawMessage(`{broken`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestUpdateWhilePendingIsSentAfterConfirmation(t *testing.T) {
	canvas := NewCanvas("me")

	tempID, err := canvas.AddLocal("s1", json.RawMessage(`{"x":1}`))
	if err != nil {
		t.Fatalf("AddLocal: %v", err)
	}
	sendNow, ok := canvas.UpdateLocal(tempID, json.RawMessage(`{"x":2}`))
	if !ok || sendNow {
		t.Fatalf("expected update held for pending create, got sendNow=%v ok=%v", sendNow, ok)
	}
	if edit, _ := canvas.Edit(tempID); string(edit.Latest) != `{"x":2}` {
		t.Fatalf("expected latest properties recorded, got %s", edit.Latest)
	}

	// The echo carries the properties the create was sent with.
	outcome, id := canvas.ApplyAdded(ElementAdded{
		SlideID:         "s1",
		InitiatorUserID: "me",
		Element:         Element{ID: "srv-1", SlideID: "s1", Properties: json.RawMessage(`{"x":1}`)},
	})
	if outcome != ReconciledUpdate || id != "srv-1" {
		t.Fatalf("expected reconciled update for srv-1, got %v %q", outcome, id)
	}

	props, ok := canvas.Properties(id)
	if !ok || string(props) != `{"x":2}` {
		t.Fatalf("expected local properties to survive confirmation, got %s", props)
	}
	if len(canvas.Elements("s1")) != 1 {
		t.Fatal("expected a single element")
	}

	if sendNow, ok := canvas.UpdateLocal(id, json.RawMessage(`{"x":3}`)); !ok || !sendNow {
		t.Fatal("updates to a confirmed element go out immediately")
	}
}

func TestUpdateUnknownElement(t *testing.T) {
	canvas := NewCanvas("me")
	if _, ok := canvas.UpdateLocal("missing", json.RawMessage(`{}`)); ok {
		t.Fatal("expected unknown id to be reported")
	}
}
