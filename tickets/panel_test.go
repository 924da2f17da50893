package tickets

import (
	"reflect"
	"testing"
)

func samplePanel() Panel {
	return Panel{Elements: []Element{
		text("# Heading"),
		row(
			Button{ID: "a", Label: "A", Style: StylePrimary},
			Button{ID: "b", Label: "B", Style: StyleSecondary},
		),
		row(Button{ID: "c", Label: "C", Style: StyleDanger}),
	}}
}

func TestWithButtonReplacesOnlyTarget(t *testing.T) {
	p := samplePanel()
	replacement := Button{ID: "b2", Label: "B2", Style: StyleSuccess}

	got := p.WithButton("b", replacement)

	if btn, ok := got.Button("b2"); !ok || btn != replacement {
		t.Fatalf("replacement not applied: %+v", got)
	}
	if _, ok := got.Button("b"); ok {
		t.Fatalf("old button still present")
	}

	// Everything else is untouched.
	if got.Elements[0].Text != "# Heading" {
		t.Fatalf("text element changed")
	}
	if a, _ := got.Button("a"); a != (Button{ID: "a", Label: "A", Style: StylePrimary}) {
		t.Fatalf("sibling button changed: %+v", a)
	}
	if !reflect.DeepEqual(got.Elements[2], p.Elements[2]) {
		t.Fatalf("unrelated row changed")
	}
}

func TestWithButtonDoesNotMutateReceiver(t *testing.T) {
	p := samplePanel()
	before := Panel{Elements: append([]Element(nil), p.Elements...)}

	_ = p.WithButton("a", Button{ID: "x", Label: "X"})

	if !reflect.DeepEqual(p, before) {
		t.Fatalf("receiver mutated: %+v", p)
	}
	if btn, _ := p.Button("a"); btn.ID != "a" {
		t.Fatalf("original button list mutated: %+v", btn)
	}
}

func TestWithButtonMissingIDIsNoop(t *testing.T) {
	p := samplePanel()
	got := p.WithButton("nope", Button{ID: "y"})
	if !reflect.DeepEqual(got, p) {
		t.Fatalf("patching a missing id changed the panel")
	}
}

func TestFeedbackFormAnswerLocksRow(t *testing.T) {
	form := FeedbackForm(42, 7, FeedbackSession{Q1: 3})

	for r := 1; r <= 5; r++ {
		btn, ok := form.Button(feedbackRatingID(1, r, 42))
		if !ok {
			t.Fatalf("q1 rating %d missing", r)
		}
		if r == 3 {
			if btn.Disabled || btn.Style != StyleSuccess {
				t.Fatalf("chosen rating not highlighted: %+v", btn)
			}
		} else if !btn.Disabled {
			t.Fatalf("unchosen q1 rating %d still enabled", r)
		}
	}

	if _, ok := form.Button(feedbackEditID(1, 42)); !ok {
		t.Fatalf("answered question has no edit button")
	}
	// Unanswered questions stay fully live.
	if btn, _ := form.Button(feedbackRatingID(2, 1, 42)); btn.Disabled {
		t.Fatalf("q2 locked without an answer")
	}
	if _, ok := form.Button(feedbackEditID(2, 42)); ok {
		t.Fatalf("unanswered question has an edit button")
	}
}

func TestCategoryPanelListsAllCategoriesPlusCancel(t *testing.T) {
	p := CategoryPanel()

	var menu *SelectMenu
	for _, el := range p.Elements {
		if el.Select != nil {
			menu = el.Select
		}
	}
	if menu == nil {
		t.Fatalf("no select menu in category panel")
	}
	if menu.ID != CustomIDCategorySelect {
		t.Fatalf("menu id = %s", menu.ID)
	}

	want := len(Categories()) + 1
	if len(menu.Options) != want {
		t.Fatalf("options = %d, want %d", len(menu.Options), want)
	}
	if last := menu.Options[len(menu.Options)-1]; last.Value != CancelCategory {
		t.Fatalf("last option = %+v, want cancel", last)
	}
}
