package compiler

import "testing"

func TestLex_KeywordsAndIdentifiers(t *testing.T) {
	toks, err := Lex("int x = 1;")
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	want := []TokenType{INT, IDENTIFIER, ASSIGN, INT_CONST, SEMICOLON}
	if len(toks) < len(want) {
		t.Fatalf("expected at least %d tokens, got %d", len(want), len(toks))
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, tt)
		}
	}
}

func TestLex_IntegerSuffixes(t *testing.T) {
	for _, src := range []string{"1u", "1U", "1l", "1L", "1ul", "1LL", "1ULL", "0x1A", "010"} {
		toks, err := Lex(src + ";")
		if err != nil {
			t.Fatalf("Lex(%q) failed: %v", src, err)
		}
		if len(toks) == 0 || toks[0].Type != INT_CONST {
			t.Errorf("Lex(%q): expected a leading INT_CONST token, got %v", src, toks)
		}
	}
}

func TestLex_HexFloat(t *testing.T) {
	toks, err := Lex("0x1.8p3;")
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	if len(toks) == 0 || toks[0].Type != FLOAT_CONST {
		t.Fatalf("expected a leading FLOAT_CONST token, got %v", toks)
	}
}

func TestLex_UnterminatedCharConstIsError(t *testing.T) {
	if _, err := Lex("'a"); err == nil {
		t.Fatalf("expected a lex error for an unterminated character literal")
	}
}

func TestLex_IllegalCharacterIsError(t *testing.T) {
	if _, err := Lex("int x = `;"); err == nil {
		t.Fatalf("expected a lex error for an illegal character")
	}
}
