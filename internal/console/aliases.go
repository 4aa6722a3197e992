package console

import "strings"

// stageAliases maps the console's short stage names to their on-wire
// stage identifiers. Grounded on spec.md's glossary table; the
// trailing dropped letter on "Darker" is intentional, preserved
// exactly for client compatibility rather than "fixed".
var stageAliases = map[string]string{
	"Cap":     "CapWorldHomeStage",
	"Cascade": "WaterfallWorldHomeStage",
	"Sand":    "SandWorldHomeStage",
	"Lake":    "LakeWorldHomeStage",
	"Wooded":  "ForestWorldHomeStage",
	"Cloud":   "CloudWorldHomeStage",
	"Lost":    "ClashWorldHomeStage",
	"Metro":   "CityWorldHomeStage",
	"Sea":     "SeaWorldHomeStage",
	"Snow":    "SnowWorldHomeStage",
	"Lunch":   "LavaWorldHomeStage",
	"Ruined":  "BossRaidWorldHomeStage",
	"Bowser":  "SkyWorldHomeStage",
	"Moon":    "MoonWorldHomeStage",
	"Mush":    "PeachWorldHomeStage",
	"Dark":    "Special1WorldHomeStage",
	"Darker":  "Special2WorldHomeStag",
}

// resolveStage looks up a console-supplied short name against the
// alias table, case insensitively. An unresolved name is an operator
// error (spec.md §9), not a fallback to the raw input.
func resolveStage(name string) (string, bool) {
	for alias, stage := range stageAliases {
		if strings.EqualFold(alias, name) {
			return stage, true
		}
	}
	return "", false
}
