package summarize

import (
	"fmt"
	"strings"
)

const (
	SummaryMarker   = "## 摘要"
	KeyPointsMarker = "## 关键要点"

	DefaultMaxLength = 2000
	DefaultFormat    = "markdown"

	// SystemPrompt is sent as the system message to chat-style backends.
	SystemPrompt = "你是一个专业的内容分析助手，擅长提取内容的核心信息并生成摘要。"

	noFocusMarker = "无特别要求"
)

// Request is one summarization call. Zero values pick the defaults.
type Request struct {
	Content     string
	MaxLength   int
	FocusPoints []string
	Format      string
}

// Result is the parsed model answer.
type Result struct {
	Summary   string
	KeyPoints []string
}

func (r Request) withDefaults() Request {
	if r.MaxLength <= 0 {
		r.MaxLength = DefaultMaxLength
	}
	if strings.TrimSpace(r.Format) == "" {
		r.Format = DefaultFormat
	}
	return r
}

// BuildPrompt renders the single fixed instruction used by every backend.
func BuildPrompt(r Request) string {
	r = r.withDefaults()
	focus := noFocusMarker
	if len(r.FocusPoints) > 0 {
		focus = strings.Join(r.FocusPoints, ", ")
	}

	var b strings.Builder
	b.WriteString("请对以下内容生成一个摘要，并列出关键要点。\n\n")
	fmt.Fprintf(&b, "摘要长度要求：不超过%d字符\n", r.MaxLength)
	fmt.Fprintf(&b, "摘要格式：%s\n", r.Format)
	fmt.Fprintf(&b, "特别关注点：%s\n\n", focus)
	b.WriteString("内容：\n")
	b.WriteString(r.Content)
	b.WriteString("\n\n请按以下格式返回：\n\n")
	b.WriteString(SummaryMarker + "\n")
	b.WriteString("<在这里生成摘要内容>\n\n")
	b.WriteString(KeyPointsMarker + "\n")
	b.WriteString("- 要点1\n- 要点2\n- ...\n")
	return b.String()
}
