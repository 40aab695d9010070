package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/supaloboto/sisuo/internal/cli/output"
	"github.com/supaloboto/sisuo/pkg/lexer"
	"github.com/supaloboto/sisuo/pkg/token"
)

// NewTokensCommand creates the tokens command.
func NewTokensCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Dump the tokens of a script",
		Long: `Tokenize a script and print its tokens.

Bracket, array and call groups are shown with their children indented
below them. Positions are 1-based line:column.`,
		Example: `  sisuo tokens invoice.ss
  sisuo tokens invoice.ss -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(cmd, args[0])
		},
	}
	return cmd
}

func runTokens(cmd *cobra.Command, path string) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	src, err := readScript(path)
	if err != nil {
		return err
	}
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	cmdCtx.Logger.Debug("tokenized script", "path", path, "tokens", len(toks))

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(tokenInfos(toks))
	}

	rows := tokenRows(nil, toks, 0)

	r.Header(1, "Tokens: "+path)
	r.Table([]string{"Position", "Type", "Content", "Name"}, rows)
	return nil
}

// tokenRows flattens toks into table rows, indenting group children.
func tokenRows(rows [][]string, toks []*token.Token, depth int) [][]string {
	indent := strings.Repeat("  ", depth)
	for _, t := range toks {
		content := t.Content
		if t.Type.IsGroup() {
			content = ""
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d:%d", t.Span.Start.Row+1, t.Span.Start.Col+1),
			indent + t.Type.String(),
			content,
			t.Name,
		})
		rows = tokenRows(rows, t.Children, depth+1)
	}
	return rows
}

func tokenInfos(toks []*token.Token) []*output.TokenInfo {
	out := make([]*output.TokenInfo, 0, len(toks))
	for _, t := range toks {
		info := &output.TokenInfo{
			Type:    t.Type.String(),
			Content: t.Content,
			Name:    t.Name,
			Line:    t.Span.Start.Row + 1,
			Column:  t.Span.Start.Col + 1,
		}
		if len(t.Children) > 0 {
			info.Children = tokenInfos(t.Children)
		}
		out = append(out, info)
	}
	return out
}
