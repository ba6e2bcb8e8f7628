package wetlib

import (
	"encoding/json"
	"testing"
	"time"
)

func TestActionIDsSortByCreationTime(t *testing.T) {
	base := time.Now()
	a := newActionID(base)
	b := newActionID(base) // same instant, sequence breaks the tie
	c := newActionID(base.Add(time.Millisecond))
	if !(a < b && b < c) {
		t.Fatalf("ids not ordered: %q %q %q", a, b, c)
	}
}

func TestPendingActionValidate(t *testing.T) {
	payload := json.RawMessage(`{"title":"x"}`)
	cases := []struct {
		name   string
		action PendingAction
		ok     bool
	}{
		{
			name:   "create",
			action: PendingAction{Kind: ActionCreate, Endpoint: EndpointLocations, Payload: payload},
			ok:     true,
		},
		{
			name:   "update",
			action: PendingAction{Kind: ActionUpdate, Endpoint: EndpointLocations, RecordID: "7", Payload: payload},
			ok:     true,
		},
		{
			name:   "delete without payload",
			action: PendingAction{Kind: ActionDelete, Endpoint: EndpointLocations, RecordID: "7"},
			ok:     true,
		},
		{
			name:   "unknown kind",
			action: PendingAction{Kind: "merge", Endpoint: EndpointLocations, Payload: payload},
		},
		{
			name:   "unknown endpoint",
			action: PendingAction{Kind: ActionCreate, Endpoint: "tiles", Payload: payload},
		},
		{
			name:   "update without record id",
			action: PendingAction{Kind: ActionUpdate, Endpoint: EndpointLocations, Payload: payload},
		},
		{
			name:   "create with record id",
			action: PendingAction{Kind: ActionCreate, Endpoint: EndpointLocations, RecordID: "7", Payload: payload},
		},
		{
			name:   "create without payload",
			action: PendingAction{Kind: ActionCreate, Endpoint: EndpointLocations},
		},
	}
	for _, tc := range cases {
		err := tc.action.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("%s: expected validation error", tc.name)
			}
			if !IsValidationError(err) {
				t.Fatalf("%s: expected ValidationError, got %T", tc.name, err)
			}
		}
	}
}

func TestLocationRecordValidate(t *testing.T) {
	ok := LocationRecord{Title: "North pond", Latitude: 35.1, Longitude: 33.4}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	bad := []LocationRecord{
		{Latitude: 35.1, Longitude: 33.4},              // no title
		{Title: "x", Latitude: 95, Longitude: 33.4},    // lat out of range
		{Title: "x", Latitude: 35.1, Longitude: -181},  // lon out of range
		{Title: "x", Latitude: -90.0001, Longitude: 0}, // just below range
		{Title: "x", Latitude: 0, Longitude: 180.0001}, // just above range
	}
	for i, r := range bad {
		if err := r.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, r)
		}
	}
}
