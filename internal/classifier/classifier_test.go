package classifier

import (
	"testing"
)

func TestClassify(t *testing.T) {
	c := New()

	tests := []struct {
		name      string
		utterance string
		want      Request
		wantOK    bool
	}{
		{"trend for men", "what's trending for men", Request{KindTrend, "men"}, true},
		{"trend for women is not men", "Latest looks for WOMEN?", Request{KindTrend, "women"}, true},
		{"trend accessories", "which bags are popular right now", Request{KindTrend, "accessories"}, true},
		{"trend default all", "show me the hot trends", Request{KindTrend, "all"}, true},
		{"trend outranks occasion", "what's trending for a wedding", Request{KindTrend, "all"}, true},
		{"trend outranks season", "latest summer styles for her", Request{KindTrend, "women"}, true},
		{"occasion office", "What should I wear to the office?", Request{KindTip, "office"}, true},
		{"occasion party", "outfit ideas for a party tonight", Request{KindTip, "party"}, true},
		{"occasion default casual", "I have an event next week", Request{KindTip, "casual"}, true},
		{"season default men", "what to wear this winter", Request{KindSeason, "men"}, true},
		{"season outranks occasion", "summer wedding guest outfit for women", Request{KindSeason, "women"}, true},
		{"no keywords", "how do I tie a tie", Request{}, false},
		{"empty", "", Request{}, false},
		{"substring is not a keyword", "a hotel workout plan", Request{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Classify(tt.utterance)
			if ok != tt.wantOK {
				t.Fatalf("Classify(%q) ok = %v, want %v", tt.utterance, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.utterance, got, tt.want)
			}
		})
	}
}

func TestClassifyCustomRules(t *testing.T) {
	c := New(Rule{
		Kind:     KindTip,
		Keywords: []string{"beach"},
		Default:  "casual",
	})

	if _, ok := c.Classify("what's trending"); ok {
		t.Error("custom rules should replace the default table")
	}

	got, ok := c.Classify("beach day")
	if !ok || got != (Request{KindTip, "casual"}) {
		t.Errorf("Classify(beach day) = %+v, %v", got, ok)
	}
}
