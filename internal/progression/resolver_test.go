package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSkillName(t *testing.T) {
	softSkills := SkillMap{"Comunicação": 60, "Organização": 70, "Resolução de Problemas": 55}
	techSkills := SkillMap{"Python": 70, "APIs REST": 65, "PostgreSQL": 55, "Testes Unitários": 45}

	tests := []struct {
		name   string
		label  string
		skills SkillMap
		soft   bool
		want   string
		found  bool
	}{
		{"exact tech", "Python", techSkills, false, "Python", true},
		{"exact soft", "Organização", softSkills, true, "Organização", true},
		{"soft communication cluster", "Comunicação Técnica", softSkills, true, "Comunicação", true},
		{"soft english label", "Written communication", softSkills, true, "Comunicação", true},
		{"soft organization cluster", "Planejamento de sprint", softSkills, true, "Organização", true},
		{"soft problem solving cluster", "Debugging", softSkills, true, "Resolução de Problemas", true},
		{"soft unknown", "Liderança", softSkills, true, "", false},
		{"tech label inside key", "postgres", techSkills, false, "PostgreSQL", true},
		{"tech key inside label", "Python 3.12 async", techSkills, false, "Python", true},
		{"tech case insensitive", "apis rest", techSkills, false, "APIs REST", true},
		{"tech unknown", "Docker", techSkills, false, "", false},
		{"soft clusters not used for tech", "Comunicação Técnica", techSkills, false, "", false},
		{"empty label", "   ", techSkills, false, "", false},
		{"empty map", "Python", SkillMap{}, false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveSkillName(tt.label, tt.skills, tt.soft)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSkillName_ExactMatchWins(t *testing.T) {
	// "Comunicação Escrita" 也会命中沟通簇，但精确匹配优先
	skills := SkillMap{"Comunicação": 50, "Comunicação Escrita": 40}

	got, ok := ResolveSkillName("Comunicação Escrita", skills, true)
	assert.True(t, ok)
	assert.Equal(t, "Comunicação Escrita", got)
}

func TestResolveSkillName_ClusterPrecedence(t *testing.T) {
	// 同时命中沟通和组织簇时，沟通优先
	skills := SkillMap{"gestao_de_tempo": 50, "trabalho_em_equipe": 60}

	got, ok := ResolveSkillName("Planejamento em equipe", skills, true)
	assert.True(t, ok)
	assert.Equal(t, "trabalho_em_equipe", got)
}

func TestResolveSkillName_NeverFabricates(t *testing.T) {
	skills := SkillMap{"Comunicação": 60, "Git": 50, "SQL": 40}
	labels := []string{
		"Comunicação", "comunicação oral", "Email writing", "Git flow", "sql",
		"planning", "debug", "Kubernetes", "", "x",
	}

	for _, soft := range []bool{true, false} {
		for _, label := range labels {
			got, ok := ResolveSkillName(label, skills, soft)
			if !ok {
				assert.Empty(t, got)
				continue
			}
			_, exists := skills[got]
			assert.True(t, exists, "resolved %q to %q", label, got)
		}
	}
}
