// Package service holds the application logic of the question-and-answer
// service:
//
//   - CatalogService creates and reads questions and answers and owns the
//     ownership checks shared by the other services.
//   - VoteService keeps at most one vote per user and answer.
//   - AcceptanceService keeps at most one accepted answer per question.
//   - Notifier tells question owners about new answers through the
//     background task runner.
//   - UserService registers users and issues access tokens.
package service
