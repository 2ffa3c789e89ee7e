package domain

// InputKind says how a step collects its answer.
type InputKind string

const (
	InputText           InputKind = "text"
	InputNumber         InputKind = "number"
	InputDate           InputKind = "date"
	InputEmail          InputKind = "email"
	InputPhone          InputKind = "phone"
	InputSelect         InputKind = "select"
	InputConfirm        InputKind = "confirm"
	InputDisambiguation InputKind = "disambiguation"
)

// FreeEntry reports whether the kind accepts typed input rather than a choice.
// A free-entry step always waits for a turn, even when it has an action and no
// options.
func (k InputKind) FreeEntry() bool {
	switch k {
	case InputText, InputNumber, InputDate, InputEmail, InputPhone:
		return true
	}
	return false
}

// Choice reports whether answers are matched against the resolved options.
func (k InputKind) Choice() bool {
	return k == InputSelect || k == InputConfirm || k == InputDisambiguation
}

// Option is one selectable answer. Label is shown; Value is canonical.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Prompts resolves the messages shown when a step is entered.
type Prompts interface {
	Resolve(app *Application) []string
}

// StaticPrompts is a fixed prompt list.
type StaticPrompts []string

func (p StaticPrompts) Resolve(*Application) []string { return p }

// PromptFunc personalises prompts from the record.
type PromptFunc func(app *Application) []string

func (f PromptFunc) Resolve(app *Application) []string { return f(app) }

// Options resolves the choices offered by a step.
type Options interface {
	Resolve(app *Application) []Option
}

// StaticOptions is a fixed option list.
type StaticOptions []Option

func (o StaticOptions) Resolve(*Application) []Option { return o }

// OptionFunc computes options from the record.
type OptionFunc func(app *Application) []Option

func (f OptionFunc) Resolve(app *Application) []Option { return f(app) }

// NextRule resolves the id of the step that follows.
type NextRule interface {
	Resolve(answer string, app *Application) string
}

// Goto is an unconditional transition.
type Goto string

func (g Goto) Resolve(string, *Application) string { return string(g) }

// NextFunc branches on the answer and the record.
type NextFunc func(answer string, app *Application) string

func (f NextFunc) Resolve(answer string, app *Application) string { return f(answer, app) }

// FieldRef resolves the record path an answer is written to.
type FieldRef interface {
	Resolve(app *Application) string
}

// Path is a fixed dot path such as "asset.priceIncTax".
type Path string

func (p Path) Resolve(*Application) string { return string(p) }

// FieldRefFunc computes the path, e.g. from the director cursor.
type FieldRefFunc func(app *Application) string

func (f FieldRefFunc) Resolve(app *Application) string { return f(app) }

// SkipRule bypasses a step when it returns true.
type SkipRule func(app *Application) bool

// Validator returns a user-facing message, or "" when raw is acceptable.
type Validator func(raw string, app *Application) string

// ValueFunc converts a raw answer into the value stored at the field path.
type ValueFunc func(raw string, app *Application) (any, error)

// Outcome classifies a terminal step.
type Outcome string

const (
	OutcomeNone       Outcome = ""
	OutcomeSuccess    Outcome = "success"
	OutcomeIneligible Outcome = "ineligible"
	OutcomeLead       Outcome = "lead"
)

// Step is one entry of the step graph. Steps are immutable once registered.
type Step struct {
	ID       string
	Prompts  Prompts
	Input    InputKind
	Options  Options
	Field    FieldRef
	Value    ValueFunc
	Validate Validator
	Action   string
	Next     NextRule
	SkipIf   SkipRule
	Outcome  Outcome
}

// Terminal reports whether the conversation ends at this step.
func (s *Step) Terminal() bool {
	return s.Next == nil
}

// ResolvePrompts returns the prompts for app, or nil.
func (s *Step) ResolvePrompts(app *Application) []string {
	if s.Prompts == nil {
		return nil
	}
	return s.Prompts.Resolve(app)
}

// ResolveOptions returns the options for app, or nil.
func (s *Step) ResolveOptions(app *Application) []Option {
	if s.Options == nil {
		return nil
	}
	return s.Options.Resolve(app)
}

// AutoProgress reports whether the step runs its action and advances without a
// turn: it has an action, no resolved options, and a non free-entry kind.
func (s *Step) AutoProgress(options []Option) bool {
	return s.Action != "" && len(options) == 0 && !s.Input.FreeEntry()
}
