package terms

import (
	"reflect"
	"testing"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		required []string
		ignored  []string
		want     Verdict
	}{
		{"no terms", "Anything at all", nil, nil, Accepted},
		{"required present", "Renogy 100W Solar Panel", []string{"solar"}, nil, Accepted},
		{"required case insensitive", "RENOGY SOLAR PANEL", []string{"Solar", "panel"}, nil, Accepted},
		{"required missing", "Renogy 100W Panel", []string{"solar", "panel"}, nil, MissingRequirements},
		{"required gates ignored", "Solar Panel Broken", []string{"solar"}, []string{"broken"}, Accepted},
		{"required missing wins over ignored", "Broken Panel", []string{"solar"}, []string{"broken"}, MissingRequirements},
		{"ignored hit", "Solar Panel Broken", nil, []string{"broken"}, Ignored},
		{"ignored miss", "Solar Panel", nil, []string{"broken"}, Accepted},
		{"ignored substring", "Unbroken seal", nil, []string{"broken"}, Ignored},
		{"blank required skipped", "Solar Panel", []string{"  ", ""}, []string{"panel"}, Ignored},
		{"blank ignored skipped", "Solar Panel", nil, []string{""}, Accepted},
		{"empty text with required", "", []string{"solar"}, nil, MissingRequirements},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.text, tt.required, tt.ignored); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestMatch_EmptyDescriptionTermsAcceptAnything(t *testing.T) {
	if got := Match("Used, minor wear", nil, nil); got != Accepted {
		t.Errorf("got %v, want accepted", got)
	}
}

func TestSplit(t *testing.T) {
	got := Split("solar\n  panel \n\nmono\n", "\n")
	want := []string{"solar", "panel", "mono"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split() = %v, want %v", got, want)
	}
	if got := Split("", "\n"); got != nil {
		t.Errorf("Split(empty) = %v, want nil", got)
	}
}

func TestVerdictString(t *testing.T) {
	if MissingRequirements.String() != "missing_requirements" {
		t.Errorf("unexpected string %q", MissingRequirements.String())
	}
}
