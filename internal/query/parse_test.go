package query

import "testing"

func TestParseRecordsSplitsPipesAndFields(t *testing.T) {
	body := "clid=5 cid=10 client_database_id=7 client_nickname=Alice client_type=0|clid=6 cid=10 client_database_id=8 client_nickname=Bob\\sJr client_type=1"
	clients, err := decodeRows(body, decodeClient)
	if err != nil {
		t.Fatalf("decodeRows: %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("got %d clients, want 2", len(clients))
	}
	if clients[0].Nickname != "Alice" || clients[0].ID != 5 || !clients[0].IsUser() {
		t.Fatalf("unexpected first client: %+v", clients[0])
	}
	if clients[1].Nickname != "Bob Jr" || clients[1].IsUser() {
		t.Fatalf("unexpected second client: %+v", clients[1])
	}
}

func TestParseRecordsIgnoresUnknownKeys(t *testing.T) {
	body := "cid=42 pid=0 channel_order=5 total_clients=3"
	ch, err := decodeFirst(body, decodeChannel)
	if err != nil {
		t.Fatalf("decodeFirst: %v", err)
	}
	if ch.ID != 42 || ch.ParentID != 0 {
		t.Fatalf("unexpected channel: %+v", ch)
	}
}

func TestParseRecordsMissingRequiredKey(t *testing.T) {
	body := "clid=5 cid=10 client_nickname=Alice client_type=0"
	if _, err := decodeRows(body, decodeClient); err == nil {
		t.Fatal("expected error for missing client_database_id")
	}
}

func TestDecodeFirstEmptyBody(t *testing.T) {
	if _, err := decodeFirst("", decodeWhoAmI); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestDecodeWhoAmI(t *testing.T) {
	w, err := decodeFirst("virtualserver_status=online client_id=3 client_database_id=12", decodeWhoAmI)
	if err != nil {
		t.Fatalf("decodeFirst: %v", err)
	}
	if w.ClientID != 3 || w.DatabaseID != 12 {
		t.Fatalf("unexpected whoami: %+v", w)
	}
}

func TestDecodeClientInfoMuteFlags(t *testing.T) {
	tests := []struct {
		body  string
		muted bool
	}{
		{"client_input_muted=0 client_output_muted=0", false},
		{"client_input_muted=1 client_output_muted=0", true},
		{"client_input_muted=0 client_output_muted=1", true},
	}
	for _, tt := range tests {
		info, err := decodeFirst(tt.body, decodeClientInfo)
		if err != nil {
			t.Fatalf("decodeFirst(%q): %v", tt.body, err)
		}
		if info.Muted() != tt.muted {
			t.Errorf("Muted() for %q = %v, want %v", tt.body, info.Muted(), tt.muted)
		}
	}
}
