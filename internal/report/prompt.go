package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/osteele/liquid"

	"github.com/ignite/casedeck/internal/datanorm"
)

// Prompt templates are Liquid so the wording can be tuned without touching
// binding code. One template per language; both receive the same context.
const promptJA = `あなたはショート動画・ライブコマースの法人営業担当です。
以下の企業向けに、提案資料に載せる紹介文を日本語で3〜4文書いてください。
社名やドメインの事実だけを使い、誇張や断定は避けてください。

企業名: {{ display_name }}
サイト: {{ domain }}
{% if industry != "" %}業種: {{ industry }}
{% endif %}{% if country != "" %}地域: {{ country }}（{{ region }}）
{% endif %}{% if metrics != "" %}参考指標: {{ metrics }}
{% endif %}{% if has_embed %}この企業のサイトには既に当社の動画埋め込みタグが設置されています。既存導入を踏まえた拡張提案として書いてください。
{% else %}この企業はまだ動画埋め込みを導入していません。新規導入の価値が伝わるように書いてください。
{% endif %}`

const promptEN = `You are an enterprise sales rep for a short-video and live commerce platform.
Write a 3-4 sentence introduction for the following company, to be pasted
into a proposal deck. Stick to the provided facts; no hype, no guarantees.

Company: {{ display_name }}
Site: {{ domain }}
{% if industry != "" %}Industry: {{ industry }}
{% endif %}{% if country != "" %}Market: {{ country }} ({{ region }})
{% endif %}{% if metrics != "" %}Reference metrics: {{ metrics }}
{% endif %}{% if has_embed %}The site already carries our embed tags; frame the text as expanding an existing deployment.
{% else %}The site has no embeds yet; frame the text around a first deployment.
{% endif %}`

// Fixed description fallbacks, substituted whenever generation fails.
var fallbackDescriptions = map[Language]string{
	LangJapanese: "ショート動画とライブ配信の活用により、サイト上でのエンゲージメントと購買体験の向上が期待できる企業です。",
	LangEnglish:  "This company is a strong candidate for short-form video and live streaming to lift on-site engagement and shopping experience.",
}

// FallbackDescription returns the fixed per-language text used when the
// description step fails.
func FallbackDescription(lang Language) string {
	if s, ok := fallbackDescriptions[lang]; ok {
		return s
	}
	return fallbackDescriptions[LangJapanese]
}

// PromptBuilder renders description prompts from case metadata.
type PromptBuilder struct {
	engine *liquid.Engine
}

// NewPromptBuilder creates the builder with its Liquid engine.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{engine: liquid.NewEngine()}
}

// Build renders the prompt for the case's language.
func (b *PromptBuilder) Build(c Case, hasEmbed bool) (string, error) {
	tmpl := promptJA
	if c.Language == LangEnglish {
		tmpl = promptEN
	}

	bindings := map[string]interface{}{
		"display_name": c.DisplayName,
		"domain":       c.Domain,
		"industry":     c.Industry,
		"country":      c.Country,
		"region":       Region(c.Country),
		"codes":        strings.Join(CountryCodes(c.Country), ", "),
		"sample_count": c.SampleCount,
		"metrics":      FormatMetrics(c.Metrics),
		"has_embed":    hasEmbed,
	}

	out, err := b.engine.ParseAndRenderString(tmpl, bindings)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return out, nil
}

// FormatMetrics renders present metrics in registry order as a compact
// "NAME: value" list for prompts and slide placeholders.
func FormatMetrics(metrics map[datanorm.Metric]float64) string {
	var parts []string
	for _, m := range datanorm.AllMetrics {
		v, ok := metrics[m]
		if !ok {
			continue
		}
		parts = append(parts, string(m)+": "+strconv.FormatFloat(v, 'f', -1, 64))
	}
	return strings.Join(parts, ", ")
}
