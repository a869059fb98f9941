package models

import "encoding/json"

// GenerateQuizRequest mirrors the quiz service's /api/generate body.
// Source is "topic", "text" or "url"; Content carries the topic name, raw
// text or URL accordingly.
type GenerateQuizRequest struct {
	Source        string   `json:"type"`
	Content       string   `json:"content"`
	NumQuestions  int      `json:"num_questions"`
	QuestionTypes []string `json:"question_types,omitempty"`
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// GeneratedQuiz is the quiz service's response to a generation call.
type GeneratedQuiz struct {
	Success        bool           `json:"success"`
	Questions      []QuizQuestion `json:"questions"`
	TotalQuestions int            `json:"total_questions"`
	SourceType     string         `json:"source_type"`
	Topic          string         `json:"topic"`
}

// ValidateQuizRequest asks the quiz service to grade a set of answers.
type ValidateQuizRequest struct {
	Questions []QuizQuestion `json:"questions"`
	Answers   []string       `json:"answers"`
}

type ValidateQuizResponse struct {
	Success      bool            `json:"success"`
	Score        int             `json:"score"`
	Total        int             `json:"total"`
	ScorePercent float64         `json:"score_percent"`
	Results      json.RawMessage `json:"results,omitempty"`
}

// SubmitQuizRequest reports a locally finished quiz for bookkeeping.
type SubmitQuizRequest struct {
	Topic          string `json:"topic"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"total_questions"`
}
