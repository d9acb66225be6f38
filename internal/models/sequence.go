package models

import (
	"fmt"
	"strings"
)

// SequenceScope names a family of counters.
type SequenceScope string

const (
	SequenceRollNumber      SequenceScope = "roll_number"
	SequenceAdmissionNumber SequenceScope = "admission_number"
	SequenceReceiptNumber   SequenceScope = "receipt_number"
)

var scopeArity = map[SequenceScope]int{
	SequenceRollNumber:      3,
	SequenceAdmissionNumber: 1,
	SequenceReceiptNumber:   1,
}

// SequenceKey identifies one independent counter, e.g. roll numbers of a
// program, academic period and division.
type SequenceKey struct {
	Scope SequenceScope
	Parts []string
}

// RollNumberKey keys roll numbers by program, academic period and division.
func RollNumberKey(programID, academicPeriod, division string) SequenceKey {
	return SequenceKey{Scope: SequenceRollNumber, Parts: []string{programID, academicPeriod, division}}
}

// AdmissionNumberKey keys admission numbers by year.
func AdmissionNumberKey(year int) SequenceKey {
	return SequenceKey{Scope: SequenceAdmissionNumber, Parts: []string{fmt.Sprint(year)}}
}

// ReceiptNumberKey keys receipt numbers by year.
func ReceiptNumberKey(year int) SequenceKey {
	return SequenceKey{Scope: SequenceReceiptNumber, Parts: []string{fmt.Sprint(year)}}
}

// Validate checks the scope is known and every part is present.
func (k SequenceKey) Validate() error {
	arity, ok := scopeArity[k.Scope]
	if !ok {
		return fmt.Errorf("unknown sequence scope %q", k.Scope)
	}
	if len(k.Parts) != arity {
		return fmt.Errorf("sequence scope %q expects %d key parts, got %d", k.Scope, arity, len(k.Parts))
	}
	for i, p := range k.Parts {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("sequence key part %d is empty", i)
		}
		if strings.Contains(p, "|") {
			return fmt.Errorf("sequence key part %d contains '|'", i)
		}
	}
	return nil
}

// Encoded is the storage form of the key parts.
func (k SequenceKey) Encoded() string {
	return strings.Join(k.Parts, "|")
}

// String renders scope and parts for logs and lock names.
func (k SequenceKey) String() string {
	return string(k.Scope) + "|" + k.Encoded()
}

// SequenceCounter is one persisted counter row.
type SequenceCounter struct {
	Scope      SequenceScope `db:"scope" json:"scope"`
	CounterKey string        `db:"counter_key" json:"counter_key"`
	LastValue  int64         `db:"last_value" json:"last_value"`
}
