package flow

import (
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/pkg/fault"
)

const dateLayout = "2006-01-02"

var numberPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// operatorExpressions maps a condition operator to the expression
// evaluated against {answer, value}.
var operatorExpressions = map[models.ConditionOperator]string{
	models.Equals: "answer == value",
}

var programs sync.Map // expression -> *vm.Program

// ValidateAnswer checks a raw textual answer against the question type and
// returns the coerced value.
func ValidateAnswer(q models.Question, raw string) (any, error) {
	switch q.Type {
	case models.MultipleChoice, models.Rating:
		for _, opt := range q.Options {
			if opt.ID == raw {
				return raw, nil
			}
		}
		return nil, invalidAnswer("invalid option")

	case models.Boolean:
		switch raw {
		case "yes":
			return true, nil
		case "no":
			return false, nil
		}
		return nil, invalidAnswer("boolean response must be 'yes' or 'no'")

	case models.Date:
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, invalidAnswer("invalid date format")
		}
		return d, nil

	case models.Number:
		if !numberPattern.MatchString(raw) {
			return nil, invalidAnswer("number must be a valid integer or float")
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, invalidAnswer("number must be a valid integer or float")
		}
		return n, nil

	case models.Text:
		return raw, nil

	default:
		return nil, invalidAnswer("invalid question type")
	}
}

// ResolveNext returns the id of the question that follows q when answered
// with raw, or "" when there is none.
//
// Option routed types take the next id of the chosen option; conditions
// nested in options are not consulted. Other types evaluate their
// conditions in order and stop at the first match; when conditions exist
// and none match there is no next question, the default is not a fallback.
func ResolveNext(q models.Question, raw string) string {
	if q.IsTerminal {
		return ""
	}

	if q.Type.RoutesByOption() {
		for _, opt := range q.Options {
			if opt.ID == raw {
				return opt.NextQuestionID
			}
		}
		return ""
	}

	if len(q.ConditionalNext) > 0 {
		answer, err := ValidateAnswer(q, raw)
		if err != nil {
			return ""
		}
		for _, cond := range q.ConditionalNext {
			if conditionMatches(cond, answer) {
				return cond.NextQuestionID
			}
		}
		return ""
	}

	return q.DefaultNextQuestionID
}

func conditionMatches(cond models.Condition, answer any) bool {
	expression, ok := operatorExpressions[cond.Operator]
	if !ok {
		return false
	}

	match, err := evaluateExpression(expression, map[string]any{
		"answer": comparable(answer),
		"value":  comparable(cond.Value),
	})
	if err != nil {
		slog.Warn("Condition evaluation failed", "operator", cond.Operator, "next_question_id", cond.NextQuestionID, "error", err)
		return false
	}
	return match
}

// comparable puts dates in the same textual form condition values use.
func comparable(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(dateLayout)
	}
	return v
}

func evaluateExpression(expression string, input map[string]any) (bool, error) {
	program, err := compile(expression)
	if err != nil {
		return false, err
	}

	output, err := expr.Run(program, input)
	if err != nil {
		return false, err
	}

	result, ok := output.(bool)

	if !ok {
		return false, errors.New("expression did not return a boolean")
	}

	return result, nil
}

func compile(expression string) (*vm.Program, error) {
	if p, ok := programs.Load(expression); ok {
		return p.(*vm.Program), nil
	}

	// no env: operands are typed at run time so mismatched kinds compare unequal
	program, err := expr.Compile(expression)
	if err != nil {
		return nil, err
	}

	programs.Store(expression, program)
	return program, nil
}

func invalidAnswer(msg string) error {
	return fault.NewClientError(msg, fault.ErrInvalidAnswer)
}
