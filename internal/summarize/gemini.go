package summarize

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const maxContentChars = 300

// Gemini is the production Provider.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func (g *Gemini) Summarize(ctx context.Context, batch []Request) ([]Block, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	model := g.client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(batch)))
	if err != nil {
		if IsTransient(err) {
			return nil, &TransientError{Err: err}
		}
		return nil, fmt.Errorf("generate summaries: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty model response")
	}

	text := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	blocks := ParseNumberedBlocks(text)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no parseable blocks in model response")
	}
	return blocks, nil
}

func buildPrompt(batch []Request) string {
	var b strings.Builder
	b.WriteString("다음 뉴스 기사들을 각각 요약해줘.\n\n")
	b.WriteString("규칙:\n")
	b.WriteString("- 각 기사마다 음슴체로 최대 3줄 요약\n")
	b.WriteString("- 마지막 줄은 반드시 '결론: '으로 시작하는 한 줄 결론\n")
	b.WriteString("- 기사 번호를 [N] 형식으로 그대로 유지\n")
	b.WriteString("- 다른 텍스트 없이 요약만 출력\n\n")

	for i, req := range batch {
		content := strings.Join(strings.Fields(req.Content), " ")
		if utf8.RuneCountInString(content) > maxContentChars {
			content = string([]rune(content)[:maxContentChars])
		}
		fmt.Fprintf(&b, "[%d] 제목: %s\n", i+1, req.Title)
		if content != "" {
			fmt.Fprintf(&b, "내용: %s\n", content)
		}
		b.WriteString("\n")
	}
	return b.String()
}
