// Package domain contains the core entities of the question-and-answer
// service: users, questions, answers, votes and notifications, along with
// their validation rules. It has no knowledge of storage or transport.
package domain
