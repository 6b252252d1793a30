package progression

import "strings"

type skillCluster struct {
	name  string
	terms []string
}

// 软技能关键词簇，按优先级排列：沟通 > 组织 > 问题解决。
// 用户档案里的技能名多为葡萄牙语，所以同时保留英文和葡语词干。
var softSkillClusters = []skillCluster{
	{
		name: "communication",
		terms: []string{
			"communication", "comunica",
			"explain", "explan", "explica",
			"write", "writing", "escrit", "redação", "redacao",
			"message", "mensage",
			"email", "e-mail",
			"technical", "técnic", "tecnic",
			"team", "equipe",
		},
	},
	{
		name: "organization",
		terms: []string{
			"organiz", "organis",
			"plan", "planej",
			"prioriti", "prioriz",
			"manage", "gest", "gerenc",
		},
	},
	{
		name: "problem-solving",
		terms: []string{
			"solv", "resolu", "resolv",
			"problem",
			"debug", "depura",
			"investig",
			"analys", "analis", "anális", "análise",
		},
	},
}

func (c skillCluster) matches(s string) bool {
	for _, term := range c.terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

// ResolveSkillName 将 AI 给出的技能名映射到用户已有的技能名。
// 找不到时返回 false，调用方负责跳过，不会创建新技能。
func ResolveSkillName(label string, skills SkillMap, soft bool) (string, bool) {
	if _, ok := skills[label]; ok {
		return label, true
	}

	keys := skills.Keys()
	lowerLabel := strings.ToLower(strings.TrimSpace(label))
	if lowerLabel == "" {
		return "", false
	}

	if soft {
		for _, cluster := range softSkillClusters {
			if !cluster.matches(lowerLabel) {
				continue
			}
			for _, key := range keys {
				if cluster.matches(strings.ToLower(key)) {
					return key, true
				}
			}
		}
		return "", false
	}

	for _, key := range keys {
		lowerKey := strings.ToLower(key)
		if lowerKey == "" {
			continue
		}
		if strings.Contains(lowerKey, lowerLabel) || strings.Contains(lowerLabel, lowerKey) {
			return key, true
		}
	}
	return "", false
}
