// Package flow holds the survey question graph rules: structural validation
// of a survey and the answer-driven transition from one question to the next.
package flow

import (
	"fmt"
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/pkg/fault"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 1000
)

// Validate checks the survey flow:
//
//  1. The first question exists.
//  2. Every question is keyed by its own id, has a known type and only
//     uses known condition operators.
//  3. Every referenced next question exists.
//  4. Multiple choice and rating questions have options.
//  5. No question can be revisited from the first question before a
//     terminal question is reached.
//
// It stops at the first violation and reports it as a structural fault
// whose subject is the offending id.
func Validate(s models.Survey) error {
	if _, ok := s.Questions[s.FirstQuestionID]; !ok {
		return fault.NewStructuralError("first question not found in questions list", s.FirstQuestionID)
	}

	// sorted so the reported violation does not depend on map order
	ids := slices.Sorted(maps.Keys(s.Questions))

	for _, id := range ids {
		if err := checkQuestion(id, s.Questions[id]); err != nil {
			return err
		}
	}

	for _, id := range ids {
		if err := checkReferences(s.Questions[id], s.Questions); err != nil {
			return err
		}
	}

	for _, id := range ids {
		if err := checkOptions(s.Questions[id]); err != nil {
			return err
		}
	}

	if at := findCycle(s.Questions, s.FirstQuestionID, map[string]bool{}, map[string]bool{}); at != "" {
		return fault.NewStructuralError(fmt.Sprintf("circular reference detected at question %s", at), at)
	}

	return nil
}

// ValidateMetadata checks the title and description lengths.
func ValidateMetadata(s models.Survey) error {
	if n := utf8.RuneCountInString(s.Title); n < 1 || n > maxTitleLength {
		return fault.NewStructuralError(fmt.Sprintf("title must be between 1 and %d characters", maxTitleLength), "title")
	}
	if n := utf8.RuneCountInString(s.Description); n < 1 || n > maxDescriptionLength {
		return fault.NewStructuralError(fmt.Sprintf("description must be between 1 and %d characters", maxDescriptionLength), "description")
	}
	return nil
}

// ValidateUpdate validates the survey that would result from applying the
// update and returns it. Nothing is returned when the merged survey breaks
// any invariant, so an update is applied entirely or not at all.
func ValidateUpdate(current models.Survey, update models.SurveyUpdate) (models.Survey, error) {
	merged := update.Merge(current)

	if update.Title != nil || update.Description != nil {
		if err := ValidateMetadata(merged); err != nil {
			return models.Survey{}, err
		}
	}

	if err := Validate(merged); err != nil {
		return models.Survey{}, err
	}

	return merged, nil
}

// GetQuestion looks up a question of the survey by id.
func GetQuestion(s models.Survey, id string) (models.Question, error) {
	q, ok := s.Questions[id]
	if !ok {
		return models.Question{}, fault.NewClientError(fmt.Sprintf("question %s not found", id), fault.ErrNotFound)
	}
	return q, nil
}

func checkQuestion(key string, q models.Question) error {
	if q.ID == "" || q.ID != key {
		return fault.NewStructuralError(fmt.Sprintf("question %s has mismatched id %q", key, q.ID), key)
	}
	if !q.Type.Valid() {
		return fault.NewStructuralError(fmt.Sprintf("question %s has unknown type %q", key, q.Type), key)
	}

	conditions := slices.Clone(q.ConditionalNext)
	for _, opt := range q.Options {
		conditions = append(conditions, opt.Conditions...)
	}
	for _, cond := range conditions {
		if !cond.Operator.Valid() {
			return fault.NewStructuralError(fmt.Sprintf("question %s has unknown condition operator %q", key, cond.Operator), key)
		}
	}

	return nil
}

func checkReferences(q models.Question, questions models.QuestionSet) error {
	missing := func(id string) error {
		return fault.NewStructuralError(fmt.Sprintf("question %s not found", id), id)
	}

	// a terminal question never follows its default
	if q.DefaultNextQuestionID != "" && !q.IsTerminal {
		if _, ok := questions[q.DefaultNextQuestionID]; !ok {
			return missing(q.DefaultNextQuestionID)
		}
	}

	for _, opt := range q.Options {
		if opt.NextQuestionID != "" {
			if _, ok := questions[opt.NextQuestionID]; !ok {
				return missing(opt.NextQuestionID)
			}
		}
		for _, cond := range opt.Conditions {
			if _, ok := questions[cond.NextQuestionID]; !ok {
				return missing(cond.NextQuestionID)
			}
		}
	}

	for _, cond := range q.ConditionalNext {
		if _, ok := questions[cond.NextQuestionID]; !ok {
			return missing(cond.NextQuestionID)
		}
	}

	return nil
}

func checkOptions(q models.Question) error {
	if q.Type.RequiresOptions() && len(q.Options) == 0 {
		return fault.NewStructuralError(fmt.Sprintf("%s question %s must have options", q.Type, q.ID), q.ID)
	}
	return nil
}

// successors lists the outgoing edges walked by cycle detection.
func successors(q models.Question) []string {
	if q.IsTerminal {
		return nil
	}

	var next []string
	if q.DefaultNextQuestionID != "" {
		next = append(next, q.DefaultNextQuestionID)
	}
	for _, opt := range q.Options {
		if opt.NextQuestionID != "" {
			next = append(next, opt.NextQuestionID)
		}
	}
	for _, cond := range q.ConditionalNext {
		next = append(next, cond.NextQuestionID)
	}
	return next
}

type frame struct {
	id    string
	edges []string
	next  int
}

// findCycle walks the graph depth first from start and returns the id of the
// first question found while it is still on the walk stack, or "" when the
// reachable graph is acyclic. Every question id reached must exist.
func findCycle(questions models.QuestionSet, start string, onStack, done map[string]bool) string {
	onStack[start] = true
	stack := []*frame{{id: start, edges: successors(questions[start])}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if top.next == len(top.edges) {
			delete(onStack, top.id)
			done[top.id] = true
			stack = stack[:len(stack)-1]
			continue
		}

		id := top.edges[top.next]
		top.next++

		if onStack[id] {
			return id
		}
		if done[id] {
			continue
		}

		onStack[id] = true
		stack = append(stack, &frame{id: id, edges: successors(questions[id])})
	}

	return ""
}
