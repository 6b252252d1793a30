package service

import (
	"context"
	"encoding/json"
	"fmt"
	"praxis_backend/internal/config"
	"praxis_backend/internal/llm"
	"praxis_backend/internal/model"
	"praxis_backend/internal/progression"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

type EvaluationRequest struct {
	Challenge  *model.Challenge
	Submission model.SubmittedCode

	// CurrentSkills 用户当前技能值，只用于提示词上下文，可为空
	CurrentSkills progression.SkillMap
}

type Evaluator interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error)
}

// NewEvaluator provider 为 nil（ai.provider=fake）时使用本地评审
func NewEvaluator(provider llm.Provider, cfg config.AIConfig, log *zap.Logger) Evaluator {
	if provider == nil {
		return FakeEvaluator{}
	}
	return NewLLMEvaluator(provider, cfg, log)
}

type LLMEvaluator struct {
	provider    llm.Provider
	timeout     time.Duration
	maxTokens   int
	temperature float64
	log         *zap.Logger
}

func NewLLMEvaluator(provider llm.Provider, cfg config.AIConfig, log *zap.Logger) *LLMEvaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &LLMEvaluator{
		provider:    provider,
		timeout:     cfg.Timeout,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		log:         log,
	}
}

func (e *LLMEvaluator) Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	prompt, err := BuildEvaluationPrompt(req)
	if err != nil {
		return nil, err
	}

	llmReq := llm.UserPrompt(evaluationSystemPrompt, prompt, EvaluationSchema)
	llmReq.MaxTokens = e.maxTokens
	llmReq.Temperature = e.temperature

	resp, err := e.provider.Generate(llm.WithPurpose(ctx, "evaluation"), llmReq)
	if err != nil {
		return nil, err
	}

	eval, err := ParseEvaluation(resp.Content)
	if err != nil {
		return nil, err
	}
	e.log.Debug("Submission evaluated",
		zap.Uint("challenge_id", req.Challenge.ID),
		zap.Int("score", eval.Score),
		zap.Int("skills_assessed", len(eval.SkillsAssessment)),
	)
	return eval, nil
}

const evaluationSystemPrompt = "Você é um avaliador técnico sênior. Avalie com rigor e justiça, " +
	"responda apenas com o JSON solicitado."

// detectTrack 根据主技能推断评审方向
func detectTrack(targetSkill string) string {
	s := strings.ToLower(targetSkill)
	switch {
	case containsAny(s, "sql", "airflow", "spark", "dbt"):
		return "data_engineer"
	case containsAny(s, "react", "vue", "angular", "css"):
		return "frontend"
	case containsAny(s, "python", "node", "fastapi", "api"):
		return "backend"
	}
	return "fullstack"
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

var trackCriteria = map[string]string{
	"data_engineer": `CRITÉRIOS DE AVALIAÇÃO PARA DATA ENGINEER:
- Código: corretude, performance, reprodutibilidade, tratamento de dados
- Planejamento: orquestração, idempotência, monitoramento, escalabilidade
- Comunicação: clareza técnica, contexto de negócio, acionabilidade`,
	"frontend": `CRITÉRIOS DE AVALIAÇÃO PARA FRONTEND:
- Código: funcionalidade, UI/UX, performance, acessibilidade
- Planejamento: componentização, gerenciamento de estado, manutenibilidade
- Comunicação: clareza, justificativa das decisões de design`,
	"backend": `CRITÉRIOS DE AVALIAÇÃO PARA BACKEND:
- Código: funcionalidade, validação, segurança, performance
- Planejamento: design de endpoints, escalabilidade, monitoramento
- Comunicação: clareza técnica, entendimento do impacto no sistema`,
}

// BuildEvaluationPrompt 组装评审提示词，要求模型逐个评估挑战声明的技能
func BuildEvaluationPrompt(req EvaluationRequest) (string, error) {
	desc, err := req.Challenge.ParsedDescription()
	if err != nil {
		return "", err
	}
	diff, err := req.Challenge.ParsedDifficulty()
	if err != nil {
		return "", err
	}

	track := detectTrack(desc.TargetSkill)
	criteria, ok := trackCriteria[track]
	if !ok {
		criteria = trackCriteria["backend"]
	}

	content, err := renderSubmission(req.Challenge, req.Submission)
	if err != nil {
		return "", err
	}

	language := desc.Language
	if language == "" {
		language = "text"
	}
	level := diff.Level
	if level == "" {
		level = string(progression.DifficultyMedium)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Você é um avaliador técnico sênior especializado em %s.\n\n", strings.ToUpper(track))
	b.WriteString("DESAFIO PROPOSTO:\n")
	fmt.Fprintf(&b, "Título: %s\n", req.Challenge.Title)
	fmt.Fprintf(&b, "Descrição: %s\n", desc.Text)
	fmt.Fprintf(&b, "Tipo: %s\n", desc.Type)
	fmt.Fprintf(&b, "Dificuldade: %s\n", level)
	fmt.Fprintf(&b, "Critérios de avaliação: %s\n", strings.Join(desc.EvalCriteria, ", "))
	b.WriteString(renderStatement(desc.Enunciado))
	fmt.Fprintf(&b, "\nSUBMISSÃO DO CANDIDATO:\n```%s\n%s\n```\n\n", language, content)
	b.WriteString(criteria)
	b.WriteString("\n\n")

	skills := desc.DeclaredSkills()
	b.WriteString("TAREFA DE AVALIAÇÃO:\n")
	b.WriteString("1. Atribua uma nota geral (nota_geral, 0-100)\n")
	b.WriteString("2. Avalie métricas por critério (metricas)\n")
	b.WriteString("3. Liste pontos positivos, pontos negativos e sugestões de melhoria\n")
	b.WriteString("4. Faça o SKILLS ASSESSMENT de cada skill abaixo, uma entrada por skill:\n")
	for _, s := range skills {
		if cur, ok := req.CurrentSkills[s]; ok {
			fmt.Fprintf(&b, "   - %s (nível atual: %d/100)\n", s, cur)
		} else {
			fmt.Fprintf(&b, "   - %s\n", s)
		}
	}
	b.WriteString(`
Para cada skill:
a) skill_level_demonstrated (0-100): nível demonstrado NESSA skill, não é a nota geral
b) progression_intensity (-1.0 a +1.0): +0.9 domínio claro, +0.5 competente, +0.1 mínimo aceitável,
   -0.2 falhas leves, -0.5 falhas significativas
c) reasoning: por que essa skill deve progredir ou regredir

REGRAS:
- Use exatamente os nomes de skill listados acima
- Não avalie skills fora da lista
- Seja justo mas rigoroso
`)

	return b.String(), nil
}

// renderSubmission 按提交类型转成文本
func renderSubmission(ch *model.Challenge, sub model.SubmittedCode) (string, error) {
	switch sub.Type {
	case model.ChallengeTypePlanning:
		return renderPlanning(ch, sub)
	case model.ChallengeTypeFreeText:
		return sub.Content, nil
	}

	if len(sub.Files) == 0 {
		return sub.Content, nil
	}
	names := make([]string, 0, len(sub.Files))
	for name := range sub.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("// %s\n%s", name, sub.Files[name]))
	}
	return strings.Join(parts, "\n\n"), nil
}

type formSection struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Fields []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	} `json:"fields"`
}

// renderPlanning 把表单答案按模板的分组和标签展示
func renderPlanning(ch *model.Challenge, sub model.SubmittedCode) (string, error) {
	var sections []formSection
	// 模板格式不对时退化为按字段 ID 展示
	_ = model.DecodeJSON(ch.TemplateCode, &sections)

	type fieldInfo struct{ section, label string }
	lookup := map[string]fieldInfo{}
	var order []string
	for _, s := range sections {
		label := s.Label
		if label == "" {
			label = s.ID
		}
		order = append(order, label)
		for _, f := range s.Fields {
			if f.ID == "" {
				continue
			}
			fl := f.Label
			if fl == "" {
				fl = f.ID
			}
			lookup[f.ID] = fieldInfo{section: label, label: fl}
		}
	}

	ids := make([]string, 0, len(sub.FormData))
	for id := range sub.FormData {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	const general = "Seção Geral"
	grouped := map[string][]string{}
	for _, id := range ids {
		answer := sub.FormData[id]
		if answer == nil {
			continue
		}
		text, ok := answer.(string)
		if !ok {
			b, err := json.MarshalIndent(answer, "", "  ")
			if err != nil {
				return "", err
			}
			text = string(b)
		}
		info, ok := lookup[id]
		if !ok {
			info = fieldInfo{section: general, label: id}
		}
		grouped[info.section] = append(grouped[info.section], fmt.Sprintf("- %s: %s", info.label, text))
	}
	order = append(order, general)

	var parts []string
	for _, section := range order {
		lines, ok := grouped[section]
		if !ok {
			continue
		}
		delete(grouped, section)
		parts = append(parts, "### "+section+"\n"+strings.Join(lines, "\n"))
	}

	out := strings.Join(parts, "\n\n")
	if sub.Content != "" {
		plan := "=== PLANO DE IMPLEMENTAÇÃO ===\n" + sub.Content
		if out == "" {
			return plan, nil
		}
		out += "\n\n" + plan
	}
	return out, nil
}

// renderStatement 展示邮件或需求类的题面
func renderStatement(statement map[string]any) string {
	if len(statement) == 0 {
		return ""
	}
	str := func(key string) string {
		if v, ok := statement[key].(string); ok {
			return v
		}
		return "N/A"
	}
	list := func(key string) string {
		items, _ := statement[key].([]any)
		var lines []string
		for _, item := range items {
			lines = append(lines, fmt.Sprintf("  • %v", item))
		}
		return strings.Join(lines, "\n")
	}

	switch statement["type"] {
	case "email":
		return fmt.Sprintf("\nCONTEXTO - EMAIL/TICKET ORIGINAL QUE O CANDIDATO DEVERIA RESPONDER:\nDe: %s\nAssunto: %s\nData: %s\n\n%s\n",
			str("de"), str("assunto"), str("data"), str("corpo"))
	case "requisitos":
		return fmt.Sprintf("\nCONTEXTO - REQUISITOS DO PROJETO:\nRequisitos Funcionais:\n%s\n\nRequisitos Não-Funcionais:\n%s\n",
			list("funcionais"), list("nao_funcionais"))
	}
	return ""
}

// FakeEvaluator 本地确定性评审，开发环境和测试使用
type FakeEvaluator struct{}

func (FakeEvaluator) Evaluate(_ context.Context, req EvaluationRequest) (*Evaluation, error) {
	desc, err := req.Challenge.ParsedDescription()
	if err != nil {
		return nil, err
	}

	base := 82
	switch {
	case desc.Type == model.ChallengeTypeCode && len(req.Submission.Files) > 0:
		base = 88
	case desc.Type == model.ChallengeTypePlanning:
		base = 78
	}

	eval := &Evaluation{
		Score:       base,
		Strengths:   []string{"Estrutura clara"},
		Suggestions: []string{"Detalhar amostragem e limitações"},
		Weaknesses:  []string{"Faltaram exemplos numéricos"},
		Feedback:    "Bom caminho. Pequenos ajustes elevam a qualidade.",
	}
	if desc.Type == model.ChallengeTypeCode {
		eval.Metrics = map[string]int{"resolveu_problema": base, "qualidade_codigo": base - 3, "boas_praticas": base - 5}
		eval.Weaknesses = []string{"Cobertura de casos de erro limitada"}
		eval.Suggestions = []string{"Adicionar testes básicos"}
	} else {
		eval.Metrics = map[string]int{"comunicacao": base - 2, "conteudo_tecnico": base - 3, "completude": base}
	}

	intensity := 0.3
	if base >= 85 {
		intensity = 0.6
	}
	skills := desc.DeclaredSkills()
	if len(desc.AffectedSkills) > 0 {
		eval.SkillsAssessment = make(map[string]progression.AssessmentEntry, len(skills))
		for _, s := range skills {
			eval.SkillsAssessment[s] = progression.AssessmentEntry{
				SkillLevelDemonstrated: base,
				ProgressionIntensity:   intensity,
				Reasoning:              "Avaliação automática",
			}
		}
	} else if len(skills) == 1 {
		eval.LegacyAssessment = &progression.AssessmentEntry{
			SkillLevelDemonstrated: base,
			ProgressionIntensity:   intensity,
			Reasoning:              "Avaliação automática",
		}
	}

	raw, err := json.Marshal(eval)
	if err != nil {
		return nil, err
	}
	eval.Raw = raw
	return eval, nil
}
