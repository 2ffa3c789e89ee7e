// Package validate parses raw conversational answers and checks them.
//
// Every validator has the domain.Validator shape: it receives the raw answer and
// the current record and returns a user-facing message, or "" when the answer is
// acceptable. Validators never mutate the record.
package validate
