package asm

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseWhitelist(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    []string
		wantErr bool
	}{
		{"array", `["MOV", "add"]`, []string{"ADD", "MOV"}, false},
		{"empty array", `[]`, []string{}, false},
		{"duplicates", `["jmp", "JMP"]`, []string{"JMP"}, false},
		{"null", `null`, nil, true},
		{"object", `{"MOV": true}`, nil, true},
		{"numbers", `[1, 2]`, nil, true},
		{"truncated", `["MOV"`, nil, true},
		{"empty entry", `["MOV", " "]`, nil, true},
		{"empty document", ``, nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wl, err := ParseWhitelist([]byte(tc.doc))
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseWhitelist(%q) error = %v, wantErr %v", tc.doc, err, tc.wantErr)
			}
			if tc.wantErr {
				if wl != nil {
					t.Errorf("ParseWhitelist(%q) returned a whitelist with an error", tc.doc)
				}
				return
			}
			if got := wl.Mnemonics(); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Mnemonics() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWhitelistAllows(t *testing.T) {
	var unrestricted *Whitelist
	if !unrestricted.Allows("JMP") {
		t.Errorf("nil whitelist rejected JMP")
	}

	wl := NewWhitelist("mov", "ADD")
	tests := []struct {
		mnemonic string
		want     bool
	}{
		{"MOV", true},
		{"mov", true},
		{"Add", true},
		{"JMP", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := wl.Allows(tc.mnemonic); got != tc.want {
			t.Errorf("Allows(%q) = %v, want %v", tc.mnemonic, got, tc.want)
		}
	}
}

func TestWhitelistCheck(t *testing.T) {
	prog := mustParse(t, "MOV R1, 5\n.WORD 1\nADD R1, R2\nJMP 0\nHLT\n")

	if err := (*Whitelist)(nil).Check(prog); err != nil {
		t.Errorf("nil whitelist: %v", err)
	}
	if err := NewWhitelist("MOV", "ADD", "JMP", "HLT").Check(prog); err != nil {
		t.Errorf("full whitelist: %v", err)
	}

	err := NewWhitelist("MOV", "ADD").Check(prog)
	if !errors.Is(err, ErrDisallowedInstruction) {
		t.Fatalf("error = %v, want disallowed instruction", err)
	}
	var e *Error
	errors.As(err, &e)
	if e.Symbol != "JMP" || e.Pos != (Pos{4, 1}) {
		t.Errorf("offender = %s at %s, want JMP at 4:1", e.Symbol, e.Pos)
	}

	err = NewWhitelist().Check(mustParse(t, ".STRING \"data only\"\n.ORG 0x10"))
	if err != nil {
		t.Errorf("directives checked against whitelist: %v", err)
	}
}

func TestWhitelistUnknown(t *testing.T) {
	wl := NewWhitelist("MOV", "MOVE", "jump")
	want := []string{"JUMP", "MOVE"}
	if got := wl.Unknown(); !reflect.DeepEqual(got, want) {
		t.Errorf("Unknown() = %v, want %v", got, want)
	}
}
