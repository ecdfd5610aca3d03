package twilio

import (
	"strings"
	"testing"
)

func TestConnectTwiML(t *testing.T) {
	doc, err := ConnectTwiML("+919123456789", "+15550001111")
	if err != nil {
		t.Fatalf("ConnectTwiML returned error: %v", err)
	}

	for _, want := range []string{
		"<Response>",
		"<Say voice=\"alice\"",
		"<Dial callerId=\"+15550001111\">",
		"<Number>+919123456789</Number>",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("expected document to contain %q, got:\n%s", want, doc)
		}
	}
}

func TestConnectTwiMLWithoutCallerID(t *testing.T) {
	doc, err := ConnectTwiML("+919123456789", "")
	if err != nil {
		t.Fatalf("ConnectTwiML returned error: %v", err)
	}
	if strings.Contains(doc, "callerId") {
		t.Fatalf("expected callerId attribute to be omitted, got:\n%s", doc)
	}
}

func TestRejectTwiML(t *testing.T) {
	doc, err := RejectTwiML("No active session was found. Goodbye.")
	if err != nil {
		t.Fatalf("RejectTwiML returned error: %v", err)
	}
	if !strings.Contains(doc, "No active session was found. Goodbye.") {
		t.Fatalf("expected message in document, got:\n%s", doc)
	}
	if strings.Contains(doc, "<Dial") {
		t.Fatalf("rejection must not dial anyone, got:\n%s", doc)
	}
}
