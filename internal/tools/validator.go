package tools

import (
	"context"
	"errors"
	"fmt"
	"go/parser"
	"go/scanner"
	"go/token"
	"regexp"
	"strings"

	"github.com/example/multi-agent/internal/models"
)

const validCodeMessage = "Code syntax is valid"

// ValidateCode performs a syntax-only check of a Go snippet. Nothing is
// compiled or executed. Full files, bare declarations and statement lists are
// accepted; the latter two are wrapped in a synthetic package or function.
func ValidateCode(code string) models.CodeCheck {
	src := strings.TrimSpace(code)
	if src == "" {
		return models.CodeCheck{Valid: false, Message: "Syntax error: empty snippet"}
	}
	if strings.HasPrefix(src, "package ") {
		return checkSource(src, 0)
	}
	decl := checkSource("package snippet\n"+src, 1)
	if decl.Valid || looksLikeDecl(src) {
		return decl
	}
	return checkSource("package snippet\nfunc _() {\n"+src+"\n}", 2)
}

func checkSource(src string, lineOffset int) models.CodeCheck {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "snippet.go", src, parser.AllErrors|parser.SkipObjectResolution)
	if err == nil {
		return models.CodeCheck{Valid: true, Message: validCodeMessage}
	}
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]
		line := first.Pos.Line - lineOffset
		if line < 1 {
			line = 1
		}
		return models.CodeCheck{Valid: false, Message: fmt.Sprintf("Syntax error: line %d: %s", line, first.Msg)}
	}
	return models.CodeCheck{Valid: false, Message: "Syntax error: " + err.Error()}
}

func looksLikeDecl(src string) bool {
	for _, kw := range []string{"func ", "type ", "var ", "const ", "import "} {
		if strings.HasPrefix(src, kw) {
			return true
		}
	}
	return false
}

var fenceRe = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)[ \t]*\r?\n(.*?)```")

// ExtractCode returns the first ```go block in text, else the first fenced
// block of any language, else "".
func ExtractCode(text string) string {
	matches := fenceRe.FindAllStringSubmatch(text, -1)
	for _, m := range matches {
		if lang := strings.ToLower(m[1]); lang == "go" || lang == "golang" {
			return strings.TrimSpace(m[2])
		}
	}
	if len(matches) > 0 {
		return strings.TrimSpace(matches[0][2])
	}
	return ""
}

// CodeValidatorTool exposes ValidateCode through the registry.
// Inputs:
// - code: string (required); fenced blocks are unwrapped first
type CodeValidatorTool struct{}

func (t *CodeValidatorTool) Name() string { return "code_validator" }

func (t *CodeValidatorTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
	code, _ := inputs["code"].(string)
	if strings.TrimSpace(code) == "" {
		return nil, "", fmt.Errorf("missing code")
	}
	if inner := ExtractCode(code); inner != "" {
		code = inner
	}
	return ValidateCode(code), "", nil
}
