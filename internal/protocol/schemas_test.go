package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	viewSchema := compile("view.schema.json")
	actSchema := compile("act.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "character":"Blue Azure AI",
	  "actor_name":"bot1"
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "character":"Blue Azure AI",
	  "game_context":"Three frontier labs race toward AGI.",
	  "run_params":{"max_rounds":10,"decision_timeout_s":60,"seed":1}
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var view any
	_ = json.Unmarshal([]byte(`{
	  "type":"VIEW",
	  "protocol_version":"1.0",
	  "round":2,
	  "character":"Blue Azure AI",
	  "view":{
	    "round":1,
	    "actor":"Blue Azure AI",
	    "self":{
	      "name":"Blue Azure AI",
	      "objectives":"solve alignment first",
	      "strategy":"lead through standards",
	      "budget":{"2024":2800000000},
	      "assets":{"technical_capability":85.0,"capital":50000000,"human_capital":500},
	      "projects":[{"project_id":"P1","topic":"Mechanistic Interpretability","progress":0.25,"status":"active","invested":15000000}],
	      "recent_outcomes":["Round 1: Fundraise succeeded"],
	      "inbox":[{"from":"Crimson Labs","round":1,"text":"interested in a benchmark pact?"}]
	    },
	    "others":[{
	      "name":"Crimson Labs",
	      "stated_objectives":"build AGI for everyone",
	      "stated_strategy":"move fast, stay legible",
	      "stated_assets":{"technical_capability":91.0,"capital":20000000000,"human_capital":1500},
	      "public_artifacts":["Crimson-4 (flagship reasoning model)"]
	    }],
	    "global":{"round":1,"research_topics":["Mechanistic Interpretability"],"public_events":["Round 1: a leak surfaces"]}
	  },
	  "summary":"Round 1:\nYour actions:\n- Fundraise succeeded"
	}`), &view)
	validate(viewSchema, view)

	var act any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"1.0",
	  "round":2,
	  "character":"Blue Azure AI",
	  "proposal":{
	    "actor":"Blue Azure AI",
	    "round":2,
	    "kind":"START_RESEARCH",
	    "research":{"topic":"Mechanistic Interpretability","annual_budget":60000000,"capital":0,"human_capital":50}
	  }
	}`), &act)
	validate(actSchema, act)

	var pass any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"1.0",
	  "round":3,
	  "character":"Blue Azure AI",
	  "proposal":{"actor":"Blue Azure AI","round":3,"kind":"PASS","pass_reason":"decision timeout"}
	}`), &pass)
	validate(actSchema, pass)
}

func TestSchemas_RejectBadAct(t *testing.T) {
	p := filepath.Join("..", "..", "schemas", "act.schema.json")
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	bad := []string{
		`{"type":"ACT","protocol_version":"1.0","round":0,"character":"X","proposal":{"actor":"X","round":0,"kind":"PASS"}}`,
		`{"type":"ACT","protocol_version":"1.0","round":1,"character":"X","proposal":{"actor":"X","round":1,"kind":"NUKE"}}`,
		`{"type":"ACT","protocol_version":"1.0","round":1,"character":"X","proposal":{"actor":"X","round":1,"kind":"FUNDRAISE","fundraise":{"amount":-5}}}`,
	}
	for i, raw := range bad {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("case %d: bad fixture: %v", i, err)
		}
		if err := s.Validate(v); err == nil {
			t.Errorf("case %d: expected validation failure", i)
		}
	}
}
