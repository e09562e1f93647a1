package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestValidate_Bounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Tuning)
	}{
		{"prob above 1", func(tu *Tuning) { tu.FundraiseSuccessProb = 1.5 }},
		{"prob below 0", func(tu *Tuning) { tu.LeakProb = -0.1 }},
		{"frac above 1", func(tu *Tuning) { tu.CancelRefundFrac = 2 }},
		{"zero human scale", func(tu *Tuning) { tu.ResearchHumanScale = 0 }},
		{"negative jitter", func(tu *Tuning) { tu.ResearchJitter = -1 }},
	}
	for _, c := range cases {
		tu := Defaults()
		c.mutate(&tu)
		if err := tu.Validate(); err == nil {
			t.Errorf("%s: expected validation failure", c.name)
		}
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	raw := "leak_prob: 0.5\nfundraise_haircut: 0.9\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	tu, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.LeakProb != 0.5 || tu.FundraiseHaircut != 0.9 {
		t.Fatalf("overrides not applied: %+v", tu)
	}
	// Untouched knobs keep their defaults.
	if tu.PoachTransferMax != Defaults().PoachTransferMax {
		t.Fatal("defaults lost on partial override")
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("leak_prob: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected out-of-range value to fail")
	}
}

func TestLoad_ShippedFileMatchesDefaults(t *testing.T) {
	path := filepath.Join("..", "..", "..", "configs", "tuning.yaml")
	tu, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu != Defaults() {
		t.Fatalf("shipped tuning drifted from defaults:\n got %+v\nwant %+v", tu, Defaults())
	}
}
