package analysis

import "regexp"

// Predefined task category names. Discovered categories extend this set at
// runtime through the category registry.
const (
	CategoryMedication      = "Medication"
	CategoryWarningSigns    = "Warning Signs"
	CategoryWoundCare       = "Wound Care"
	CategoryPhysicalTherapy = "Physical Therapy"
	CategoryDiet            = "Diet & Nutrition"
	CategoryHygiene         = "Hygiene"
	CategoryMonitoring      = "Monitoring"
	CategoryFollowUp        = "Follow-up Care"
	CategoryActivity        = "Activity Restrictions"
	CategoryPainManagement  = "Pain Management"
)

// CategoryPattern is one pattern class: a category name plus the regular
// expressions that claim a sentence for it.
type CategoryPattern struct {
	Category string
	Patterns []*regexp.Regexp
}

// PatternLibrary is an ordered set of pattern classes. Order is priority:
// the most specific classes come first and the first class with a matching
// pattern claims the sentence, so a sentence maps to at most one category.
type PatternLibrary struct {
	classes []CategoryPattern
}

// NewPatternLibrary returns the default library. Specific classes
// (medication dosages, emergency instructions) precede generic ones
// (activity, pain management).
func NewPatternLibrary() *PatternLibrary {
	return &PatternLibrary{classes: []CategoryPattern{
		{CategoryMedication, []*regexp.Regexp{
			regexp.MustCompile(`(?i)\d+\s*(mg|mcg|ml)\b`),
			regexp.MustCompile(`(?i)take\s.{0,40}(tablet|pill|capsule|medication|medicine)`),
			regexp.MustCompile(`(?i)\b(antibiotics?|anti-inflammatory|blood\s*thinners?)\b`),
			regexp.MustCompile(`(?i)\b(aspirin|ibuprofen|acetaminophen|tylenol|advil|motrin|oxycodone|hydrocodone)\b`),
			regexp.MustCompile(`(?i)\b(prescription|over-the-counter|otc)\b`),
		}},
		{CategoryWarningSigns, []*regexp.Regexp{
			regexp.MustCompile(`(?i)(call|contact|notify)\s.{0,30}(doctor|physician|surgeon|911|emergency)`),
			regexp.MustCompile(`(?i)(seek|get)\s.{0,20}(medical|emergency)\s.{0,20}(attention|care|help)`),
			regexp.MustCompile(`(?i)warning\s*signs?`),
			regexp.MustCompile(`(?i)(fever|temperature)\s.{0,25}(above|over|greater|higher|\d)`),
			regexp.MustCompile(`(?i)(severe|worsening|increasing)\s.{0,20}(pain|swelling|bleeding)`),
			regexp.MustCompile(`(?i)(shortness\s+of\s+breath|chest\s+pain|difficulty\s+breathing)`),
		}},
		{CategoryWoundCare, []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(incisions?|wounds?|surgical\s+site)\b`),
			regexp.MustCompile(`(?i)(change|apply|remove)\s.{0,30}(dressing|bandage|steri-strips?)`),
			regexp.MustCompile(`(?i)\b(sutures?|stitches|staples)\b`),
		}},
		{CategoryPhysicalTherapy, []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(physical\s+therap\w*|range\s+of\s+motion|rehabilitation)\b`),
			regexp.MustCompile(`(?i)(strengthening|stretching)\s.{0,20}exercises?`),
			regexp.MustCompile(`(?i)perform\s.{0,30}exercises?`),
		}},
		{CategoryDiet, []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(eat|eating|drink|diet|nutrition)\b`),
			regexp.MustCompile(`(?i)(clear\s+liquids|soft\s+foods|solid\s+foods)`),
			regexp.MustCompile(`(?i)(avoid|limit)\s.{0,20}(alcohol|caffeine)`),
			regexp.MustCompile(`(?i)\b(fluids|hydrated?|hydration)\b`),
		}},
		{CategoryHygiene, []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(shower|bathe|bathing|bathtub)\b`),
			regexp.MustCompile(`(?i)(keep|pat)\s.{0,30}(clean|dry)`),
			regexp.MustCompile(`(?i)(soap\s+and\s+water|wash\s+your\s+hands)`),
		}},
		{CategoryMonitoring, []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(check|monitor|watch\s+for|inspect)\s`),
			regexp.MustCompile(`(?i)(take|record)\s.{0,20}temperature`),
			regexp.MustCompile(`(?i)\b(redness|swelling|drainage|discharge)\b`),
		}},
		{CategoryFollowUp, []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(follow-?up|appointments?|office\s+visit)\b`),
			regexp.MustCompile(`(?i)(schedule|return)\s.{0,30}(visit|clinic|office)`),
			regexp.MustCompile(`(?i)see\s.{0,20}(doctor|surgeon|provider)\s.{0,20}(in|within)`),
		}},
		{CategoryActivity, []*regexp.Regexp{
			regexp.MustCompile(`(?i)(do\s+not|don't|avoid|no)\s.{0,30}(lift|drive|driving|bend|twist|climb)`),
			regexp.MustCompile(`(?i)(resume|return\s+to)\s.{0,30}(work|activities|driving|exercise)`),
			regexp.MustCompile(`(?i)\b(weight[-\s]?bearing|crutches|walker)\b`),
			regexp.MustCompile(`(?i)\b(rest|limit\s+activity)\b`),
		}},
		{CategoryPainManagement, []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(ice|cold\s+pack|heat\s+pack)\b`),
			regexp.MustCompile(`(?i)elevate\s`),
			regexp.MustCompile(`(?i)pain\s.{0,20}(control|relief|management)`),
			regexp.MustCompile(`(?i)\b(discomfort|soreness)\b`),
		}},
	}}
}

// Classes returns the pattern classes in priority order.
func (l *PatternLibrary) Classes() []CategoryPattern {
	return l.classes
}

// Match returns the category claiming the sentence, or "" when no pattern
// matches. First match wins in class order, then pattern order.
func (l *PatternLibrary) Match(sentence string) string {
	for _, class := range l.classes {
		for _, p := range class.Patterns {
			if p.MatchString(sentence) {
				return class.Category
			}
		}
	}
	return ""
}

// MatchesCategory reports whether text matches any pattern of the named
// category. Used to re-check a task description against its own class.
func (l *PatternLibrary) MatchesCategory(category, text string) bool {
	for _, class := range l.classes {
		if class.Category != category {
			continue
		}
		for _, p := range class.Patterns {
			if p.MatchString(text) {
				return true
			}
		}
	}
	return false
}

// Timing patterns applied in a secondary pass over a matched span.
var timingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bevery\s+\d+(-\d+)?\s+(hours?|days?)\b`),
	regexp.MustCompile(`(?i)\b(once|twice|three\s+times|four\s+times)\s+(a|per)\s+(day|week)\b`),
	regexp.MustCompile(`(?i)\bfor\s+(the\s+first\s+)?\d+\s+(hours?|days?|weeks?|months?)\b`),
	regexp.MustCompile(`(?i)\b(within|after|until)\s+\d+\s+(hours?|days?|weeks?)\b`),
	regexp.MustCompile(`(?i)\b(daily|nightly|as\s+needed|at\s+bedtime)\b`),
	regexp.MustCompile(`(?i)\bday\s+\d+\b`),
	regexp.MustCompile(`(?i)\b\d+\s+times\s+(a|per)\s+day\b`),
}

// Importance cue tables, checked in order from most to least severe.
var importanceCues = []struct {
	level    string
	patterns []*regexp.Regexp
}{
	{"critical", []*regexp.Regexp{
		regexp.MustCompile(`(?i)(call|contact)\s.{0,30}(doctor|physician|surgeon|911)`),
		regexp.MustCompile(`(?i)(emergency|immediately|right\s+away|urgent)`),
		regexp.MustCompile(`(?i)seek\s+medical`),
	}},
	{"high", []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bmust\b`),
		regexp.MustCompile(`(?i)\bdo\s+not\b`),
		regexp.MustCompile(`(?i)\bnever\b`),
		regexp.MustCompile(`(?i)\b(critical|essential|important)\b`),
	}},
	{"low", []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(may|can|optional|if\s+you\s+wish|as\s+tolerated)\b`),
	}},
}

// continuationCue matches sentences that continue a preceding instruction
// and should be absorbed into its description.
var continuationCue = regexp.MustCompile(`(?i)^(this|also|and|but|then|additionally|however|it)\b`)

// careVerb marks residual sentences that look like care instructions even
// though no pattern class claimed them; these feed category discovery.
var careVerb = regexp.MustCompile(`(?i)\b(avoid|keep|take|apply|use|wear|remove|call|resume|stop|start|continue|limit|elevate|report|schedule|do\s+not|don't)\b`)
