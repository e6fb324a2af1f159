package analysis

import (
	"reflect"
	"strings"
	"testing"

	"github.com/carebound/postop/internal/models"
)

func newTestExtractor() *Extractor {
	return NewExtractor(NewPatternLibrary(), DefaultConfig())
}

func TestExtractor_Extract_medicationAndWarning(t *testing.T) {
	e := newTestExtractor()
	norm := mustNormalize(t,
		"Take ibuprofen 400mg every 6 hours for 5 days. Call your doctor if you develop a fever above 101°F.")

	tasks, _ := e.Extract("doc-1", norm)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d: %+v", len(tasks), tasks)
	}

	med := tasks[0]
	if med.Category != CategoryMedication {
		t.Errorf("first task category = %q, want %q", med.Category, CategoryMedication)
	}
	if med.Importance != models.ImportanceMedium {
		t.Errorf("medication importance = %q, want medium", med.Importance)
	}
	if !strings.Contains(med.Timing, "every 6 hours") || !strings.Contains(med.Timing, "for 5 days") {
		t.Errorf("medication timing = %q, want both frequency and duration", med.Timing)
	}

	warn := tasks[1]
	if warn.Category != CategoryWarningSigns {
		t.Errorf("second task category = %q, want %q", warn.Category, CategoryWarningSigns)
	}
	if warn.Importance != models.ImportanceCritical {
		t.Errorf("warning importance = %q, want critical", warn.Importance)
	}
}

func TestExtractor_Extract_idempotent(t *testing.T) {
	e := newTestExtractor()
	norm := mustNormalize(t,
		"Keep the incision clean and dry. Change the dressing twice a day. "+
			"Do not drive for 2 weeks. Call your surgeon if you notice increasing redness.")

	first, _ := e.Extract("doc-1", norm)
	for i := 0; i < 5; i++ {
		again, _ := e.Extract("doc-1", norm)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("extraction not idempotent on run %d:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
}

func TestExtractor_Extract_atMostOneCategoryPerSentence(t *testing.T) {
	e := newTestExtractor()
	// sentence matches both medication (dosage) and pain management (ice) classes;
	// the more specific medication class must claim it
	norm := mustNormalize(t, "Take 500mg acetaminophen and use an ice pack on the area.")

	tasks, _ := e.Extract("doc-1", norm)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Category != CategoryMedication {
		t.Errorf("category = %q, want %q (highest-priority class wins)", tasks[0].Category, CategoryMedication)
	}
}

func TestExtractor_Extract_roundTrip(t *testing.T) {
	e := newTestExtractor()
	norm := mustNormalize(t,
		"Keep the incision clean and dry at all times. Take your antibiotics with food every morning. "+
			"Do not drive until your follow-up appointment. Elevate the leg and apply ice for swelling.")

	tasks, _ := e.Extract("doc-1", norm)
	if len(tasks) == 0 {
		t.Fatal("expected tasks")
	}
	for _, task := range tasks {
		if !e.Library().MatchesCategory(task.Category, task.Description) {
			t.Errorf("description %q does not re-match its category %q", task.Description, task.Category)
		}
	}
}

func TestExtractor_Extract_neighborExpansion(t *testing.T) {
	e := newTestExtractor()
	norm := mustNormalize(t,
		"Change the dressing on your incision each morning. This keeps the area free of debris. "+
			"Also replace the outer wrap if it gets wet.")

	tasks, _ := e.Extract("doc-1", norm)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 expanded task, got %d: %+v", len(tasks), tasks)
	}
	desc := tasks[0].Description
	if !strings.Contains(desc, "This keeps the area") || !strings.Contains(desc, "Also replace the outer wrap") {
		t.Errorf("continuation sentences not absorbed: %q", desc)
	}
}

func TestExtractor_Extract_neighborExpansionCapped(t *testing.T) {
	e := newTestExtractor()
	norm := mustNormalize(t,
		"Change the dressing on your incision each morning. This keeps the area free of debris. "+
			"Also replace the outer wrap if it gets wet. Then let the area air out for an hour.")

	tasks, _ := e.Extract("doc-1", norm)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if strings.Contains(tasks[0].Description, "air out for an hour") {
		t.Errorf("absorbed more than two neighbors: %q", tasks[0].Description)
	}
}

func TestExtractor_Extract_noMatchesYieldsZeroTasks(t *testing.T) {
	e := newTestExtractor()
	norm := mustNormalize(t, "The committee reviewed the annual budget figures in detail yesterday afternoon.")

	tasks, residuals := e.Extract("doc-1", norm)
	if len(tasks) != 0 {
		t.Errorf("expected zero tasks, got %d", len(tasks))
	}
	if len(residuals) != 0 {
		t.Errorf("expected zero residuals for non-care text, got %d", len(residuals))
	}
}

func TestExtractor_Extract_residualsCarryCareVerbs(t *testing.T) {
	e := newTestExtractor()
	norm := mustNormalize(t, "Resume pet walking after your energy returns to normal levels.")

	tasks, residuals := e.Extract("doc-7", norm)
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks, got %+v", tasks)
	}
	if len(residuals) != 1 {
		t.Fatalf("expected 1 residual, got %d", len(residuals))
	}
	if residuals[0].DocumentID != "doc-7" {
		t.Errorf("residual document = %q, want doc-7", residuals[0].DocumentID)
	}
}

func TestExtractor_Extract_emptyInput(t *testing.T) {
	e := newTestExtractor()
	tasks, residuals := e.Extract("doc-1", &Normalized{})
	if tasks != nil || residuals != nil {
		t.Errorf("empty input should yield nil slices, got %v / %v", tasks, residuals)
	}
}
