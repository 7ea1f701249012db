package auth

import (
	"strings"
	"testing"
)

func TestKeyStoreLookup(t *testing.T) {
	ks := NewKeyStore("acme:gw-key-1,globex:gw-key-2")

	tests := []struct {
		key    string
		tenant string
		ok     bool
	}{
		{"gw-key-1", "acme", true},
		{"gw-key-2", "globex", true},
		{"gw-key-3", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		tenant, ok := ks.Lookup(tt.key)
		if ok != tt.ok || tenant != tt.tenant {
			t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", tt.key, tenant, ok, tt.tenant, tt.ok)
		}
	}
}

func TestKeyStoreEmpty(t *testing.T) {
	ks := NewKeyStore("")
	if !ks.Empty() {
		t.Error("store built from empty string should report Empty")
	}
	if _, ok := ks.Lookup("anything"); ok {
		t.Error("empty store matched a key")
	}

	if NewKeyStore("acme:gw-key-1").Empty() {
		t.Error("populated store reported Empty")
	}
}

func TestKeyStoreTrimsPairs(t *testing.T) {
	ks := NewKeyStore(" acme : gw-key-1 , globex : gw-key-2 ")
	if tenant, ok := ks.Lookup("gw-key-1"); !ok || tenant != "acme" {
		t.Errorf("Lookup after trim = (%q, %v)", tenant, ok)
	}
}

func TestKeyStoreIgnoresMalformedPairs(t *testing.T) {
	ks := NewKeyStore("no-colon,acme:gw-key-1")
	if _, ok := ks.Lookup("no-colon"); ok {
		t.Error("malformed pair accepted as a key")
	}
	if _, ok := ks.Lookup("gw-key-1"); !ok {
		t.Error("valid pair after malformed one was dropped")
	}
}

func TestKeyStoreDoesNotHoldPlaintext(t *testing.T) {
	ks := NewKeyStore("acme:super-secret-key")
	for hashed := range ks.keys {
		if strings.Contains(hashed, "super-secret-key") {
			t.Fatal("raw key stored instead of its hash")
		}
	}
}
