package provision

import "testing"

func TestIsTrivialAcceptsKnownToolCategories(t *testing.T) {
	cases := []string{
		"CRM Sync Tool", "Payment Processor", "Webhook Dispatcher",
		"Market Research Scanner", "Domain Registration Helper", "SEO Tracker",
	}
	for _, name := range cases {
		req := Request{Type: "tool", Name: name, Reason: "not_found"}
		if !IsTrivial(req) {
			t.Errorf("expected %q to be trivial", name)
		}
	}
}

func TestIsTrivialRejectsUnknownToolName(t *testing.T) {
	req := Request{Type: "tool", Name: "Quantum Flux Capacitor", Reason: "not_found"}
	if IsTrivial(req) {
		t.Fatal("expected unrecognized tool name to not be trivial")
	}
}

func TestIsTrivialRejectsWrongReason(t *testing.T) {
	req := Request{Type: "tool", Name: "CRM Sync Tool", Reason: "user_request"}
	if IsTrivial(req) {
		t.Fatal("expected reason other than not_found to never be trivial")
	}
}

func TestIsTrivialAlwaysRejectsAgentRequests(t *testing.T) {
	req := Request{Type: "agent", Name: "CRM Specialist Agent", Reason: "not_found"}
	if IsTrivial(req) {
		t.Fatal("expected agent requests to never be trivial")
	}
}
