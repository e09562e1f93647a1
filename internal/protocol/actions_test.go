package protocol

import "testing"

func TestValidateShape(t *testing.T) {
	cases := []struct {
		name     string
		p        ActionProposal
		wantCode string
	}{
		{"pass", Pass("A", 1, ""), ""},
		{"missing actor", ActionProposal{Kind: ActPass}, ErrBadRequest},
		{"unknown kind", ActionProposal{Actor: "A", Kind: "LAUNCH_PRODUCT"}, ErrUnknownKind},
		{"fundraise ok", ActionProposal{Actor: "A", Kind: ActFundraise, Fundraise: &FundraiseParams{Amount: 100}}, ""},
		{"fundraise missing params", ActionProposal{Actor: "A", Kind: ActFundraise}, ErrBadRequest},
		{"fundraise negative", ActionProposal{Actor: "A", Kind: ActFundraise, Fundraise: &FundraiseParams{Amount: -1}}, ErrBadRequest},
		{"research ok", ActionProposal{Actor: "A", Kind: ActStartResearch, Research: &StartResearchParams{Topic: "X", AnnualBudget: 1}}, ""},
		{"research empty topic", ActionProposal{Actor: "A", Kind: ActStartResearch, Research: &StartResearchParams{Topic: " ", AnnualBudget: 1}}, ErrBadRequest},
		{"research negative commit", ActionProposal{Actor: "A", Kind: ActStartResearch, Research: &StartResearchParams{Topic: "X", AnnualBudget: 1, Capital: -1}}, ErrBadRequest},
		{"cancel ok", ActionProposal{Actor: "A", Kind: ActCancelResearch, Cancel: &CancelParams{ProjectID: "P1"}}, ""},
		{"cancel missing id", ActionProposal{Actor: "A", Kind: ActCancelResearch, Cancel: &CancelParams{}}, ErrBadRequest},
		{"invest zero", ActionProposal{Actor: "A", Kind: ActInvestCapital, Invest: &CapitalParams{}}, ErrBadRequest},
		{"divest ok", ActionProposal{Actor: "A", Kind: ActDivestCapital, Divest: &CapitalParams{Amount: 5}}, ""},
		{"espionage self", ActionProposal{Actor: "A", Kind: ActEspionage, Espionage: &EspionageParams{Target: "A", Budget: 1}}, ErrInvalidTarget},
		{"espionage ok", ActionProposal{Actor: "A", Kind: ActEspionage, Espionage: &EspionageParams{Target: "B", Budget: 1}}, ""},
		{"poach self", ActionProposal{Actor: "A", Kind: ActPoachTalent, Poach: &PoachParams{Target: "A", Budget: 1}}, ErrInvalidTarget},
		{"lobby empty text", ActionProposal{Actor: "A", Kind: ActLobby, Lobby: &CampaignParams{Text: " ", Budget: 1}}, ErrBadRequest},
		{"market ok", ActionProposal{Actor: "A", Kind: ActMarket, Market: &CampaignParams{Text: "ad", Budget: 1}}, ""},
		{"message to self", ActionProposal{Actor: "A", Kind: ActMessage, Message: &MessageParams{To: "A", Text: "hi"}}, ErrInvalidTarget},
		{"message ok", ActionProposal{Actor: "A", Kind: ActMessage, Message: &MessageParams{To: "B", Text: "hi"}}, ""},
	}
	for _, c := range cases {
		rej := c.p.ValidateShape()
		switch {
		case c.wantCode == "" && rej != nil:
			t.Errorf("%s: unexpected rejection %v", c.name, rej)
		case c.wantCode != "" && rej == nil:
			t.Errorf("%s: expected rejection %s", c.name, c.wantCode)
		case c.wantCode != "" && rej.Code != c.wantCode:
			t.Errorf("%s: code = %s, want %s", c.name, rej.Code, c.wantCode)
		}
	}
}

func TestIsKnownCode(t *testing.T) {
	for _, code := range []string{ErrBadRequest, ErrUnknownKind, ErrNoResource, ErrTimeout, ""} {
		if !IsKnownCode(code) {
			t.Errorf("%q should be known", code)
		}
	}
	if IsKnownCode("E_MADE_UP") {
		t.Error("unknown code accepted")
	}
}

func TestDecodeBase(t *testing.T) {
	m, err := DecodeBase([]byte(`{"type":"ACT","protocol_version":"1.0","round":3}`))
	if err != nil {
		t.Fatal(err)
	}
	if m.Type != TypeAct || m.ProtocolVersion != Version {
		t.Fatalf("base = %+v", m)
	}
	if _, err := DecodeBase([]byte(`not json`)); err == nil {
		t.Fatal("expected decode failure")
	}
}
