package jsinterp

import (
	"errors"
	"testing"
)

const sigHelper = `wB:function(a){a.reverse()},
xC:function(a,b){var c=a[0];a[0]=a[b%a.length];a[b%a.length]=c},
yD:function(a,b){a.splice(0,b)}`

func TestCompileAndRunSignatureFragment(t *testing.T) {
	body := `a=a.split("");Ku.wB(a,72);Ku.xC(a,1);Ku.yD(a,2);Ku.xC(a,3);return a.join("")`

	prog, err := Compile("a", body, sigHelper)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got := len(prog.Ops()); got != 4 {
		t.Fatalf("compiled %d ops, want 4", got)
	}

	// abcdefgh -> reverse -> hgfedcba -> swap(1) -> ghfedcba
	// -> splice(2) -> fedcba -> swap(3) -> cedfba
	got, err := prog.Run("abcdefgh")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := "cedfba"; got != want {
		t.Errorf("Run = %q, want %q", got, want)
	}
}

func TestCompileBracketHelperCalls(t *testing.T) {
	body := `a=a.split("");Ku["wB"](a,0);return a.join("")`
	prog, err := Compile("a", body, sigHelper)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	got, err := prog.Run("abc")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "cba" {
		t.Errorf("Run = %q, want cba", got)
	}
}

func TestCompileInlineCalls(t *testing.T) {
	body := `a=a.split("");a.reverse();a.splice(0,2);return a.join("")`
	prog, err := Compile("a", body, "")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	got, err := prog.Run("abcdef")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := "dcba"; got != want {
		t.Errorf("Run = %q, want %q", got, want)
	}
}

func TestCompileRejectsUnknownConstructs(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"eval call", `a=a.split("");eval(a);return a.join("")`},
		{"unknown helper", `a=a.split("");Zz.qq(a,1);return a.join("")`},
		{"arbitrary method", `a=a.split("");a.map(f);return a.join("")`},
		{"network access attempt", `fetch("http://x");return a`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compile("a", tt.body, sigHelper); !errors.Is(err, ErrUnsupported) {
				t.Errorf("Compile(%q) err = %v, want ErrUnsupported", tt.body, err)
			}
		})
	}
}

func TestCompileRejectsMalformedHelper(t *testing.T) {
	helper := `zZ:function(a,b){while(true){}}`
	body := `a=a.split("");Ku.zZ(a,1);return a.join("")`
	if _, err := Compile("a", body, helper); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestRunEdgeCases(t *testing.T) {
	t.Run("swap on empty input is a no-op", func(t *testing.T) {
		prog := &Program{ops: []Op{{Kind: OpSwap, Arg: 5}}}
		got, err := prog.Run("")
		if err != nil || got != "" {
			t.Errorf("got (%q, %v)", got, err)
		}
	})

	t.Run("splice past the end fails cleanly", func(t *testing.T) {
		prog := &Program{ops: []Op{{Kind: OpSplice, Arg: 10}}}
		if _, err := prog.Run("abc"); err == nil {
			t.Error("expected range error")
		}
	})

	t.Run("swap argument wraps modulo length", func(t *testing.T) {
		prog := &Program{ops: []Op{{Kind: OpSwap, Arg: 7}}}
		got, err := prog.Run("abc") // 7 % 3 == 1
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if got != "bac" {
			t.Errorf("Run = %q, want bac", got)
		}
	})
}
