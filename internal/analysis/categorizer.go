package analysis

import "strings"

// ProcedureUnknown is returned when no synonym table entry matches.
const ProcedureUnknown = "unknown"

// ProcedureEntry maps a canonical procedure label to the synonyms and
// abbreviations that identify it in patient-facing text.
type ProcedureEntry struct {
	Label    string
	Synonyms []string
}

// defaultProcedureTable is the static synonym table. Order matters: when two
// labels have the same number of distinct synonym matches, the one defined
// first wins, so categorization is reproducible across runs.
var defaultProcedureTable = []ProcedureEntry{
	{"Total Knee Replacement", []string{"total knee replacement", "knee replacement", "knee arthroplasty", "total knee", "tka"}},
	{"Total Hip Replacement", []string{"total hip replacement", "hip replacement", "hip arthroplasty", "total hip", "tha"}},
	{"Shoulder Replacement", []string{"shoulder replacement", "shoulder arthroplasty", "reverse shoulder"}},
	{"Rotator Cuff Repair", []string{"rotator cuff", "cuff repair", "shoulder arthroscopy"}},
	{"ACL Reconstruction", []string{"acl reconstruction", "acl repair", "anterior cruciate", "knee arthroscopy"}},
	{"Spinal Fusion", []string{"spinal fusion", "spine fusion", "lumbar fusion", "cervical fusion", "vertebrae fusion"}},
	{"Laminectomy", []string{"laminectomy", "discectomy", "disc surgery"}},
	{"Cardiac Bypass", []string{"bypass surgery", "coronary bypass", "cabg", "heart bypass", "coronary artery bypass"}},
	{"Heart Valve Replacement", []string{"valve replacement", "valve repair", "aortic valve", "mitral valve"}},
	{"Pacemaker Implantation", []string{"pacemaker", "defibrillator implant", "icd implant"}},
	{"Cholecystectomy", []string{"cholecystectomy", "gallbladder removal", "gallbladder surgery"}},
	{"Appendectomy", []string{"appendectomy", "appendix removal"}},
	{"Hernia Repair", []string{"hernia repair", "inguinal hernia", "umbilical hernia", "hiatal hernia"}},
	{"Colectomy", []string{"colectomy", "bowel resection", "colon resection"}},
	{"Bariatric Surgery", []string{"bariatric", "gastric sleeve", "gastric bypass", "gastric band"}},
	{"Hysterectomy", []string{"hysterectomy", "uterus removal"}},
	{"Cesarean Section", []string{"cesarean", "c-section", "caesarean"}},
	{"Prostatectomy", []string{"prostatectomy", "prostate removal", "prostate surgery"}},
	{"Nephrectomy", []string{"nephrectomy", "kidney removal"}},
	{"Cataract Surgery", []string{"cataract", "lens replacement", "intraocular lens"}},
	{"LASIK", []string{"lasik", "laser eye surgery", "refractive surgery"}},
	{"Tonsillectomy", []string{"tonsillectomy", "tonsil removal", "adenoidectomy"}},
	{"Sinus Surgery", []string{"sinus surgery", "septoplasty", "turbinate reduction"}},
	{"Thyroidectomy", []string{"thyroidectomy", "thyroid removal", "thyroid surgery"}},
	{"Mastectomy", []string{"mastectomy", "breast removal", "lumpectomy"}},
	{"Craniotomy", []string{"craniotomy", "brain surgery", "neurosurgery"}},
	{"Carotid Endarterectomy", []string{"carotid endarterectomy", "carotid surgery"}},
	{"Varicose Vein Surgery", []string{"varicose vein", "vein stripping", "vein ablation"}},
	{"Wisdom Tooth Extraction", []string{"wisdom tooth", "wisdom teeth", "tooth extraction", "oral surgery"}},
	{"Dental Implant", []string{"dental implant", "tooth implant"}},
}

// Categorizer assigns a procedure label to normalized text using a static
// synonym table. Matching is deterministic: the label with the most distinct
// synonym matches wins, ties broken by table order.
type Categorizer struct {
	table []ProcedureEntry
}

// NewCategorizer creates a Categorizer with the default synonym table.
func NewCategorizer() *Categorizer {
	return &Categorizer{table: defaultProcedureTable}
}

// NewCategorizerWithTable creates a Categorizer with a custom table.
// The table is used as given; callers must not mutate it afterwards.
func NewCategorizerWithTable(table []ProcedureEntry) *Categorizer {
	return &Categorizer{table: table}
}

// Categorize returns the best-matching procedure label for norm and the
// number of distinct synonyms that matched. When no entry matches, the label
// is ProcedureUnknown with zero matches.
func (c *Categorizer) Categorize(norm *Normalized) (string, int) {
	if norm == nil || norm.Lower == "" {
		return ProcedureUnknown, 0
	}

	bestLabel := ProcedureUnknown
	bestMatches := 0
	for _, entry := range c.table {
		matches := 0
		for _, syn := range entry.Synonyms {
			if strings.Contains(norm.Lower, syn) {
				matches++
			}
		}
		if matches > bestMatches {
			bestLabel = entry.Label
			bestMatches = matches
		}
	}
	return bestLabel, bestMatches
}
