package tickets

// ButtonStyle mirrors the platform's button styles without depending on
// the platform package.
type ButtonStyle int

const (
	StylePrimary ButtonStyle = iota + 1
	StyleSecondary
	StyleSuccess
	StyleDanger
)

type Button struct {
	ID       string
	Label    string
	Emoji    string
	Style    ButtonStyle
	Disabled bool
}

// Element is one panel row: a markdown text block, a row of buttons, or
// a select menu. Exactly one of the three is set.
type Element struct {
	Text    string
	Buttons []Button
	Select  *SelectMenu
}

type SelectMenu struct {
	ID          string
	Placeholder string
	Options     []SelectOption
}

type SelectOption struct {
	Label       string
	Value       string
	Description string
	Emoji       string
}

// Panel is a declarative model of an interactive message surface. It is
// a value type: transforms return copies and never mutate the receiver.
type Panel struct {
	Elements []Element
}

func text(s string) Element          { return Element{Text: s} }
func row(buttons ...Button) Element  { return Element{Buttons: buttons} }
func selectRow(m SelectMenu) Element { return Element{Select: &m} }

// WithButton returns a copy of the panel in which the button with the
// given ID is replaced by b. Every other element is carried over
// untouched, so re-rendering after the transform changes exactly one
// button.
func (p Panel) WithButton(id string, b Button) Panel {
	out := Panel{Elements: make([]Element, len(p.Elements))}
	for i, el := range p.Elements {
		if len(el.Buttons) == 0 {
			out.Elements[i] = el
			continue
		}
		buttons := make([]Button, len(el.Buttons))
		for j, btn := range el.Buttons {
			if btn.ID == id {
				buttons[j] = b
			} else {
				buttons[j] = btn
			}
		}
		out.Elements[i] = Element{Buttons: buttons}
	}
	return out
}

// Button returns the button with the given ID, if present.
func (p Panel) Button(id string) (Button, bool) {
	for _, el := range p.Elements {
		for _, btn := range el.Buttons {
			if btn.ID == id {
				return btn, true
			}
		}
	}
	return Button{}, false
}
