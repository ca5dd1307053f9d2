package graph

import "strings"

// A Classification places a node on the layout shells. It is computed once
// when the node is first seen and cached on the node record.
type Classification struct {
	Region     Region
	Category   string
	Importance float64
}

// Memory and perception categories used by the layout bands and sectors.
const (
	CategoryPlanning = "planning"
	CategoryEpisodic = "episodic"
	CategorySemantic = "semantic"
	CategoryLayered  = "layered"

	CategoryVision    = "vision"
	CategoryAudio     = "audio"
	CategoryLanguage  = "language"
	CategoryTelemetry = "telemetry"
)

// AnchorNodeID is pinned at the origin of the core shell when present.
const AnchorNodeID = "agent_core"

type classifierRule struct {
	keywords []string
	class    Classification
}

// Rules are evaluated in order. The first rule with a matching keyword wins,
// so more specific keywords must come before generic ones.
var classifierRules = []classifierRule{
	{[]string{"agent_core", "core"},
		Classification{RegionCore, "", 1.0}},
	{[]string{"router", "orchestrator", "scheduler", "dispatcher"},
		Classification{RegionCore, "", 0.9}},
	{[]string{"gateway", "llm", "executor"},
		Classification{RegionCore, "", 0.8}},
	{[]string{"planner", "planning", "goal"},
		Classification{RegionMemory, CategoryPlanning, 0.7}},
	{[]string{"episodic", "session", "history"},
		Classification{RegionMemory, CategoryEpisodic, 0.6}},
	{[]string{"semantic", "vector", "embedding", "index"},
		Classification{RegionMemory, CategorySemantic, 0.6}},
	{[]string{"memory", "cache", "store", "db"},
		Classification{RegionMemory, CategoryLayered, 0.5}},
	{[]string{"vision", "image", "camera"},
		Classification{RegionPerception, CategoryVision, 0.5}},
	{[]string{"audio", "speech", "voice"},
		Classification{RegionPerception, CategoryAudio, 0.5}},
	{[]string{"text", "language", "parser", "tokenizer"},
		Classification{RegionPerception, CategoryLanguage, 0.5}},
}

var defaultClassification = Classification{
	Region:     RegionPerception,
	Category:   CategoryTelemetry,
	Importance: 0.3,
}

// Classify assigns a region, a secondary category, and an importance scalar
// to a node id. Unrecognized ids fall back to the perception shell.
func Classify(id, subsystem string) Classification {
	needle := strings.ToLower(id + " " + subsystem)

	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(needle, kw) {
				return rule.class
			}
		}
	}

	return defaultClassification
}
