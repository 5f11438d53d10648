package ws

import "testing"

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"event":"code_update","room":"abc","newCode":"print(1)"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Event != EventCodeUpdate || ev.Room != "abc" || ev.NewCode != "print(1)" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestParseEvent_Rejections(t *testing.T) {
	cases := map[string]string{
		"not json":      `{"event":`,
		"missing event": `{"room":"abc"}`,
		"missing room":  `{"event":"join_room"}`,
	}
	for name, raw := range cases {
		if _, err := ParseEvent([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
