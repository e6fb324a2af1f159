package analysis

// Curated post-operative vocabulary used by the relevance scorer. Primary
// terms signal patient-facing recovery guidance directly; secondary terms are
// supporting care language; procedure terms tie a document to a surgery.
var (
	primaryKeywords = []string{
		"post-operative", "postoperative", "post operative",
		"after surgery", "following surgery", "recovery",
		"discharge instructions", "home care", "aftercare",
		"post-surgical", "postsurgical", "rehabilitation",
	}

	secondaryKeywords = []string{
		"wound care", "incision", "sutures", "stitches", "staples",
		"dressing", "bandage", "pain management", "medication",
		"activity restrictions", "follow-up", "appointment",
		"symptoms", "complications", "emergency", "call your doctor",
	}

	procedureKeywords = []string{
		"knee replacement", "hip replacement", "cardiac surgery",
		"spine surgery", "shoulder surgery", "gallbladder",
		"appendectomy", "hernia repair", "cataract surgery",
		"arthroscopy", "laparoscopy", "bypass surgery",
	}
)
